package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"nescart/emu/log"
)

type mode byte

const (
	romInfosMode mode = iota // Show ROM infos
	mappersMode              // List supported mappers
	checkMode                // Check that ROMs can be loaded
	stateMode                // Dump cartridge state
)

type (
	CLI struct {
		RomInfos RomInfos `cmd:"" help:"Show ROM infos." name:"rom-infos"`
		Mappers  Mappers  `cmd:"" help:"List supported mappers."`
		Check    Check    `cmd:"" help:"Check that ROMs can be loaded."`
		State    State    `cmd:"" help:"${state_help}"`

		Log    logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`
		Config string     `name:"config" help:"Configuration file." type:"existingfile" placeholder:"FILE"`

		mode mode
	}

	RomInfos struct {
		RomPath string `arg:"" name:"/path/to/rom" type:"existingfile"`
	}

	Mappers struct{}

	Check struct {
		RomPaths []string `arg:"" name:"/path/to/rom" type:"existingfile"`
		Jobs     int      `name:"jobs" short:"j" help:"Number of ROMs checked concurrently (0 means one per CPU)." default:"0"`
	}

	State struct {
		RomPath   string   `arg:"" name:"/path/to/rom" type:"existingfile"`
		Poke      []poke   `name:"poke" help:"${poke_help}" placeholder:"ADDR=VAL"`
		Scanlines int      `name:"scanlines" help:"Number of scanlines to run after the writes." default:"0"`
		Restore   string   `name:"restore" help:"Restore a state before the writes." type:"existingfile" placeholder:"FILE"`
		Out       *outfile `name:"out" help:"Write the state to FILE." placeholder:"FILE|stdout|stderr"`
	}
)

var vars = kong.Vars{
	"log_help":   "Enable logging for specified modules.",
	"state_help": "Load a ROM, write to the CPU bus and dump the cartridge state as JSON.",
	"poke_help":  "CPU bus write, address and value in hexadecimal ($ or 0x prefix optional). Repeatable.",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("nescart"),
		kong.Description("NES cartridge and mapper emulation."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	switch ctx.Command() {
	case "rom-infos </path/to/rom>":
		cfg.mode = romInfosMode
	case "mappers":
		cfg.mode = mappersMode
	case "check </path/to/rom> ...":
		cfg.mode = checkMode
	default:
		cfg.mode = stateMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
	var strs []string
	for _, m := range log.ModuleNames() {
		strs = append(strs, "    - "+m)
	}

	fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	nolog := false
	allLogs := false

	tok := ctx.Scan.Pop()
	for _, v := range strings.Split(tok.Value.(string), ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			lm |= logModMask(mod.Mask())
		}
	}

	if nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if lm != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.Disable()
		return nil
	}

	if allLogs {
		lm = logModMask(log.ModuleMaskAll)
	}

	log.EnableDebugModules(log.ModuleMask(lm))
	return nil
}

// poke is a CPU bus write.
type poke struct {
	addr uint16
	val  uint8
}

// Decode decodes ADDR=VAL.
//
// Implements kong.MapperValue interface.
func (p *poke) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	s, ok := tok.Value.(string)
	if !ok {
		return fmt.Errorf("expected ADDR=VAL, got %v", tok.Value)
	}
	return p.parse(s)
}

func (p *poke) parse(s string) error {
	addr, val, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("invalid write %q: expected ADDR=VAL", s)
	}
	a, err := parseHex(addr, 16)
	if err != nil {
		return fmt.Errorf("invalid write %q: address: %w", s, err)
	}
	v, err := parseHex(val, 8)
	if err != nil {
		return fmt.Errorf("invalid write %q: value: %w", s, err)
	}
	p.addr, p.val = uint16(a), uint8(v)
	return nil
}

func (p poke) String() string { return fmt.Sprintf("$%04X=$%02X", p.addr, p.val) }

func parseHex(s string, bits int) (uint64, error) {
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return strconv.ParseUint(s, 16, bits)
}

type outfile struct {
	f    *os.File
	name string
}

// Decode decodes FILE|stdout|stderr into a file to write to.
//
// Implements kong.MapperValue interface.
func (f *outfile) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	f.name = tok.Value.(string)

	switch f.name {
	case "stdout":
		f.f = os.Stdout
	case "stderr":
		f.f = os.Stderr
	default:
		fd, err := os.Create(f.name)
		if err != nil {
			return err
		}
		f.f = fd
	}
	return nil
}

func (f *outfile) String() string { return f.name }

func (f *outfile) Write(p []byte) (int, error) {
	if f == nil || f.f == nil {
		return os.Stdout.Write(p)
	}
	return f.f.Write(p)
}

func (f *outfile) Close() error {
	if f == nil || f.f == nil || f.f == os.Stdout || f.f == os.Stderr {
		return nil
	}
	return f.f.Close()
}

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
