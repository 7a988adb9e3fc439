package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/profile"
	"github.com/urfave/cli/v2"

	"github.com/bjepson/quark/rv32"
)

var (
	RunImageFlag = &cli.PathFlag{
		Name:     "image",
		Usage:    "Path to the program image (raw little-endian binary or $readmemh hex listing)",
		Required: true,
	}
	RunFormatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: "Image format: 'bin' or 'hex'. Default: by file extension, 'bin' otherwise.",
	}
	RunMemSizeFlag = &cli.IntFlag{
		Name:  "mem-size",
		Usage: "Memory size in bytes",
		Value: 1 << 20,
	}
	RunResetAddrFlag = &cli.Uint64Flag{
		Name:  "reset-addr",
		Usage: "PC value after reset",
	}
	RunAddrWidthFlag = &cli.UintFlag{
		Name:  "addr-width",
		Usage: "Bus address width in bits",
		Value: rv32.DefaultAddrWidth,
	}
	RunCounterBitsFlag = &cli.UintFlag{
		Name:  "counter-bits",
		Usage: "Width of the cycle counter readable via rdcycle, 0 to leave it out",
		Value: 32,
	}
	RunReadWaitFlag = &cli.IntFlag{
		Name:  "read-wait",
		Usage: "Extra busy ticks per memory read, modeling slow storage",
	}
	RunWriteWaitFlag = &cli.IntFlag{
		Name:  "write-wait",
		Usage: "Extra busy ticks per memory write, modeling slow storage",
	}
	RunMaxTicksFlag = &cli.Uint64Flag{
		Name:  "max-ticks",
		Usage: "Stop after this many clock ticks",
		Value: 100_000_000,
	}
	RunUntilParkedFlag = &cli.BoolFlag{
		Name:  "until-parked",
		Usage: "Stop once the program settles in a one-instruction loop",
		Value: true,
	}
	RunStrictFlag = &cli.BoolFlag{
		Name:  "strict",
		Usage: "Fail on undefined instructions instead of executing them silently",
	}
	RunInfoAtFlag = &cli.Uint64Flag{
		Name:  "info-at",
		Usage: "Log a progress line every so many ticks, 0 to disable",
		Value: 10_000_000,
	}
	RunTraceFlag = &cli.BoolFlag{
		Name:  "trace",
		Usage: "Log every retired instruction",
	}
	RunOutputFlag = &cli.PathFlag{
		Name:  "output",
		Usage: "Path to write the final machine state snapshot as JSON, '-' for stdout",
	}
	RunPProfCPU = &cli.BoolFlag{
		Name:  "pprof.cpu",
		Usage: "enable pprof cpu profiling",
	}
)

var OutFilePerm = os.FileMode(0o644)

// NewMachine builds a machine from the run flags: RAM preloaded with the
// image, optionally behind a stalling bus, driving a core with the configured
// reset address, address width and counter.
func NewMachine(ctx *cli.Context) (*rv32.Machine, error) {
	ram := rv32.NewRAM(ctx.Int(RunMemSizeFlag.Name))
	imagePath := ctx.Path(RunImageFlag.Name)
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	format := ctx.String(RunFormatFlag.Name)
	if format == "" {
		format = detectFormat(imagePath)
	}
	switch format {
	case "hex":
		err = rv32.LoadHex(ram, f)
	case "bin":
		err = rv32.LoadBinary(ram, 0, f)
	default:
		return nil, fmt.Errorf("unknown image format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s image: %w", format, err)
	}

	var bus rv32.Bus = ram
	readWait := ctx.Int(RunReadWaitFlag.Name)
	writeWait := ctx.Int(RunWriteWaitFlag.Name)
	if readWait > 0 || writeWait > 0 {
		bus = &rv32.StallBus{Inner: ram, ReadWait: readWait, WriteWait: writeWait}
	}

	core := rv32.NewCore(rv32.Config{
		ResetAddr:       uint32(ctx.Uint64(RunResetAddrFlag.Name)),
		AddrWidth:       ctx.Uint(RunAddrWidthFlag.Name),
		CounterWidth:    ctx.Uint(RunCounterBitsFlag.Name),
		StrictUndefined: ctx.Bool(RunStrictFlag.Name),
	})
	return rv32.NewMachine(core, bus), nil
}

func detectFormat(path string) string {
	switch filepath.Ext(path) {
	case ".hex", ".mem":
		return "hex"
	default:
		return "bin"
	}
}

func Run(ctx *cli.Context) error {
	if ctx.Bool(RunPProfCPU.Name) {
		defer profile.Start(profile.NoShutdownHook, profile.ProfilePath("."), profile.CPUProfile).Stop()
	}

	l := Logger(os.Stderr, log.LevelInfo)

	m, err := NewMachine(ctx)
	if err != nil {
		return err
	}

	maxTicks := ctx.Uint64(RunMaxTicksFlag.Name)
	untilParked := ctx.Bool(RunUntilParkedFlag.Name)
	infoAt := ctx.Uint64(RunInfoAtFlag.Name)
	trace := ctx.Bool(RunTraceFlag.Name)

	start := time.Now()
	parked := false
	for tick := uint64(0); tick < maxTicks; tick++ {
		if tick%100 == 0 { // don't do the ctx err check (includes lock) too often
			if err := ctx.Context.Err(); err != nil {
				return err
			}
		}
		if infoAt != 0 && tick != 0 && tick%infoAt == 0 {
			delta := time.Since(start)
			stats := m.Stats()
			l.Info("processing",
				"tick", tick,
				"pc", HexU32(m.Core.PC()),
				"insn", HexU32(m.Core.Instr().Word),
				"retired", stats.Instructions,
				"stalls", stats.Stalls,
				"tps", float64(tick)/(float64(delta)/float64(time.Second)),
			)
		}

		before := m.Stats().Instructions
		if err := m.Tick(); err != nil {
			return fmt.Errorf("failed at tick %d (PC: %08x): %w", tick, m.Core.PC(), err)
		}
		if trace && m.Stats().Instructions > before {
			l.Info("retired",
				"pc", HexU32(m.Core.InstrPC()),
				"insn", rv32.Disassemble(m.Core.Instr().Word),
			)
		}

		if untilParked && m.Parked() && m.Core.State() == rv32.StateFetchInstr {
			parked = true
			break
		}
	}

	stats := m.Stats()
	l.Info("done",
		"parked", parked,
		"cycles", stats.Cycles,
		"retired", stats.Instructions,
		"stalls", stats.Stalls,
		"pc", HexU32(m.Core.PC()),
	)

	if out := ctx.Path(RunOutputFlag.Name); out != "" {
		if err := writeSnapshot(out, m.Snapshot()); err != nil {
			return fmt.Errorf("failed to write state output: %w", err)
		}
	}
	return nil
}

func writeSnapshot(path string, snap rv32.Snapshot) error {
	dat, err := json.MarshalIndent(&snap, "", "  ")
	if err != nil {
		return err
	}
	dat = append(dat, '\n')
	if path == "-" {
		_, err = os.Stdout.Write(dat)
		return err
	}
	return os.WriteFile(path, dat, OutFilePerm)
}

var RunCommand = &cli.Command{
	Name:        "run",
	Usage:       "Run a program image on the cycle-accurate core model.",
	Description: "Run a program image on the cycle-accurate core model. The bus can be slowed down with read/write wait ticks to reproduce SPI-flash style latencies.",
	Action:      Run,
	Flags: []cli.Flag{
		RunImageFlag,
		RunFormatFlag,
		RunMemSizeFlag,
		RunResetAddrFlag,
		RunAddrWidthFlag,
		RunCounterBitsFlag,
		RunReadWaitFlag,
		RunWriteWaitFlag,
		RunMaxTicksFlag,
		RunUntilParkedFlag,
		RunStrictFlag,
		RunInfoAtFlag,
		RunTraceFlag,
		RunOutputFlag,
		RunPProfCPU,
	},
}
