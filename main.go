package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"nescart/emu"
	"nescart/emu/log"
	"nescart/hw/mappers"
	"nescart/ines"
)

func main() {
	cli := parseArgs(os.Args[1:])
	cfg := loadConfig(cli.Config)

	switch cli.mode {
	case romInfosMode:
		rom, err := ines.Open(cli.RomInfos.RomPath)
		checkf(err, "failed to read rom")
		rom.PrintInfos(os.Stdout)
	case mappersMode:
		printMappers(os.Stdout)
	case checkMode:
		ok := checkRoms(os.Stdout, cfg, cli.Check.RomPaths, cli.Check.Jobs)
		if !ok {
			os.Exit(1)
		}
	case stateMode:
		defer cli.State.Out.Close()
		checkf(dumpState(cli.State.Out, cfg, cli.State), "failed to dump state")
	}
}

func loadConfig(path string) emu.Config {
	var cfg emu.Config
	if path == "" {
		cfg = emu.LoadConfigOrDefault()
	} else {
		var err error
		cfg, err = emu.LoadConfig(path)
		checkf(err, "failed to load configuration")
	}
	cfg.EnableLogModules()
	return cfg
}

func printMappers(w io.Writer) {
	for _, id := range mappers.Supported() {
		desc, _ := mappers.Lookup(id)
		fmt.Fprintf(w, "%3d  %-16s %s\n", id, desc.Name, mappers.DisplayName(id))
	}
}

type checkResult struct {
	path   string
	mapper string
	err    error
}

// checkRoms loads each rom into its own console, jobs at a time, and reports
// the results in the order of paths. It returns false if any rom failed.
func checkRoms(w io.Writer, cfg emu.Config, paths []string, jobs int) bool {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	results := make([]checkResult, len(paths))

	var g errgroup.Group
	g.SetLimit(jobs)
	for i, path := range paths {
		g.Go(func() error {
			results[i] = checkRom(cfg, path)
			return nil
		})
	}
	g.Wait()

	ok := true
	for _, r := range results {
		if r.err != nil {
			ok = false
			fmt.Fprintf(w, "FAIL  %s: %v\n", r.path, r.err)
			continue
		}
		fmt.Fprintf(w, "ok    %s (%s)\n", r.path, r.mapper)
	}
	return ok
}

func checkRom(cfg emu.Config, path string) checkResult {
	res := checkResult{path: path}

	rom, err := cfg.OpenRom(path)
	if err != nil {
		res.err = err
		return res
	}

	nes := emu.NewNES(cfg)
	defer nes.Close()

	if err := nes.LoadCartridge(rom); err != nil {
		res.err = err
		return res
	}
	res.mapper = nes.Mapper().Name()
	return res
}

func dumpState(w io.Writer, cfg emu.Config, args State) error {
	rom, err := cfg.OpenRom(args.RomPath)
	if err != nil {
		return err
	}

	nes := emu.NewNES(cfg)
	nes.AttachLogContext()
	defer nes.Close()

	if err := nes.LoadCartridge(rom); err != nil {
		return err
	}

	if args.Restore != "" {
		buf, err := os.ReadFile(args.Restore)
		if err != nil {
			return err
		}
		if err := nes.LoadState(buf); err != nil {
			return err
		}
	}

	for _, p := range args.Poke {
		log.ModEmu.DebugZ("poke").Hex16("addr", p.addr).Hex8("val", p.val).End()
		nes.CPU.Write8(p.addr, p.val)
	}
	nes.RunScanlines(args.Scanlines)

	buf, err := nes.SaveState()
	if err != nil {
		return err
	}

	_, err = w.Write(append(buf, '\n'))
	return err
}
