package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/bjepson/quark/rv32"
)

var (
	DisasmImageFlag = &cli.PathFlag{
		Name:     "image",
		Usage:    "Path to the program image to list",
		Required: true,
	}
	DisasmCountFlag = &cli.IntFlag{
		Name:  "count",
		Usage: "Number of words to list, 0 for the whole image",
	}
)

func Disasm(ctx *cli.Context) error {
	ram := rv32.NewRAM(ctx.Int(RunMemSizeFlag.Name))
	imagePath := ctx.Path(DisasmImageFlag.Name)
	f, err := os.Open(imagePath)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	format := ctx.String(RunFormatFlag.Name)
	if format == "" {
		format = detectFormat(imagePath)
	}
	var n int
	switch format {
	case "hex":
		err = rv32.LoadHex(ram, f)
		n = ram.Size() / 4
	case "bin":
		fi, statErr := f.Stat()
		if statErr != nil {
			return statErr
		}
		err = rv32.LoadBinary(ram, 0, f)
		n = int(fi.Size()+3) / 4
	default:
		return fmt.Errorf("unknown image format %q", format)
	}
	if err != nil {
		return fmt.Errorf("failed to load %s image: %w", format, err)
	}

	if count := ctx.Int(DisasmCountFlag.Name); count > 0 && count < n {
		n = count
	} else {
		// don't render the untouched tail of memory
		for n > 0 && ram.Word(uint32(n-1)*4) == 0 {
			n--
		}
	}
	for i := 0; i < n; i++ {
		addr := uint32(i) * 4
		word := ram.Word(addr)
		fmt.Printf("%08x:  %08x  %s\n", addr, word, rv32.Disassemble(word))
	}
	return nil
}

var DisasmCommand = &cli.Command{
	Name:        "disasm",
	Usage:       "Print a disassembly listing of a program image.",
	Description: "Print a disassembly listing of a program image.",
	Action:      Disasm,
	Flags: []cli.Flag{
		DisasmImageFlag,
		RunFormatFlag,
		RunMemSizeFlag,
		DisasmCountFlag,
	},
}
