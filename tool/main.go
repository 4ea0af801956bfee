// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package tool implements the physl command.
package tool

import (
	"context"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	golog "log"
	"net/http" // Global pprof handlers for all instantiations of the tool.
	_ "net/http/pprof"
	"os"
	"os/signal"
	"runtime/pprof"
	"sort"

	"github.com/grailbio/base/status"
	"github.com/grailbio/phylanx"
	"github.com/grailbio/phylanx/compiler"
	"github.com/grailbio/phylanx/config"
	"github.com/grailbio/phylanx/locality"
	"github.com/grailbio/phylanx/log"
	"github.com/grailbio/phylanx/metrics"
)

// Func is the type of a command function.
type Func func(*Cmd, context.Context, ...string)

// Cmd holds the configuration, flag definitions, and runtime objects
// required for tool invocations.
type Cmd struct {
	// Config must be specified.
	Config            config.Config
	DefaultConfigFile string
	Version           string

	// Commands contains the additional set of invocable commands.
	Commands map[string]Func

	// ConfigFile stores the path of the active configuration file.
	// May be overriden by the -config flag.
	ConfigFile string

	// Intro is an additional introduction printed after the standard one.
	Intro string

	// The standard output and error as defined by this command;
	// these are wrapped through a status writer so that output is
	// properly interleaved.
	Stdout, Stderr io.Writer

	// Status object for the current cmd invocation.
	Status *status.Status

	configFlags    map[string]*string
	httpFlag       string
	cpuProfileFlag string
	logFlag        string

	onexits []func()

	flags *flag.FlagSet

	Log *log.Logger
}

var commands = map[string]Func{
	"run":      (*Cmd).run,
	"compile":  (*Cmd).compile,
	"topology": (*Cmd).topology,
	"names":    (*Cmd).names,
	"doc":      (*Cmd).doc,
	"repl":     (*Cmd).repl,
	"serve":    (*Cmd).serve,
	"config":   (*Cmd).config,
	"version":  (*Cmd).versionCmd,
}

var intro = `The physl command compiles and runs PhySL programs, on a single
locality or distributed over several.

The command comprises a set of subcommands; the list of supported
commands can be obtained by running

	physl -help

Each subcommand can in turn be invoked with -help, displaying its
usage and help text. For example, the following displays help for the
"run" command.

	physl run -help

Flags must be supplied in order: global flags after the "physl"
command; command flags after that command's name. For example, the
following runs a program with debug logging over four in-process
localities:

	physl -log debug run -n 4 cannon.physl

physl is configured from a single configuration file, which may be
supplied with the -config flag:

	physl -config locality0.yaml serve cannon.physl

The current configuration and its documentation are displayed by

	physl config -help

physl's provisioned configuration keys may be overriden by flags.
These are: -logger, -metrics, and -transport.`

var help = `Physl compiles and runs PhySL programs.

Usage of physl:
	physl [flags] <command> [args]`

func (c *Cmd) mainUsage(flags *flag.FlagSet) {
	fmt.Fprintln(os.Stderr, help)
	fmt.Fprintln(os.Stderr, "Physl commands:")
	var cmds []string
	for name := range c.commands() {
		cmds = append(cmds, name)
	}
	sort.Strings(cmds)
	for _, name := range cmds {
		fmt.Fprintln(os.Stderr, "\t"+name)
	}
	fmt.Fprintln(os.Stderr, "Global flags:")
	flags.PrintDefaults()
	c.Exit(2)
}

// Main parses command line flags and then invokes the requested
// command. Main uses Cmd's config (and other initialization), which
// may be overriden by flag configs. The caller is expected to have
// parsed the flagset before calling Main.
//
// Main should only be called once.
func (c *Cmd) Main() {
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}
	flags := c.Flags()
	if flags.NArg() == 0 {
		fmt.Fprintln(os.Stderr, intro)
		if c.Intro != "" {
			fmt.Fprintln(os.Stderr)
			fmt.Fprintln(os.Stderr, c.Intro)
		}
		c.Exit(2)
	}
	cmd := flags.Arg(0)
	fn := c.commands()[cmd]
	if fn == nil {
		flags.Usage()
	}
	var (
		level     log.Level
		logflags  int
		logprefix = "physl: "
	)
	switch c.logFlag {
	case "off":
		level = log.OffLevel
	case "error":
		level = log.ErrorLevel
	case "info":
		level = log.InfoLevel
	case "debug":
		level = log.DebugLevel
	default:
		c.Fatalf("unrecognized log level %v", c.logFlag)
	}
	if level > log.InfoLevel {
		logflags = golog.LstdFlags
		logprefix = ""
	}
	c.Status = new(status.Status)
	http.Handle("/debug/status", status.Handler(c.Status))
	// The repl owns the terminal.
	if level < log.DebugLevel && cmd != "repl" {
		reporter := make(status.Reporter)
		c.Stdout = reporter.Wrap(os.Stdout)
		c.Stderr = reporter.Wrap(os.Stderr)
		go reporter.Go(os.Stderr, c.Status)
		c.onexit(reporter.Stop)
	}

	// Set the system wide logger with the same level and output
	// as the one that's threaded through Cmd.
	log.Std = log.New(golog.New(c.Stderr, logprefix, logflags), level)
	c.Log = log.Std

	// Define logs as configured by flags.
	c.Config = &logConfig{c.Config, c.Log}

	if c.ConfigFile != "" {
		b, err := ioutil.ReadFile(c.ConfigFile)
		if err != nil && c.ConfigFile != c.DefaultConfigFile {
			c.Fatal(err)
		}
		if err := config.Unmarshal(b, c.Config.Keys()); err != nil {
			c.Fatal(err)
		}
	}
	for k, v := range c.configFlags {
		if *v == "" {
			continue
		}
		c.Config.Keys()[k] = *v
	}
	var err error
	c.Config, err = config.Make(c.Config)
	if err != nil {
		c.Fatal(err)
	}
	c.Config = config.Once(c.Config)

	client, handler, err := c.Config.Metrics()
	if err != nil {
		c.Fatal(err)
	}
	if handler != nil {
		http.Handle("/metrics", handler)
	}
	if c.httpFlag != "" {
		go func() {
			c.Fatal(http.ListenAndServe(c.httpFlag, nil))
		}()
	}
	if c.cpuProfileFlag != "" {
		file, err := os.Create(c.cpuProfileFlag)
		if err != nil {
			c.Fatal(err)
		}
		pprof.StartCPUProfile(file)
		c.onexit(pprof.StopCPUProfile)
	}

	c.Log.Debug("physl version ", c.version())

	// Create a context and cancel it if we receive an interrupt.
	// The second interrupt we receive results in a hard exit.
	ctx, cancel := context.WithCancel(context.Background())
	ctx = metrics.WithClient(ctx, client)
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt)
	go func() {
		<-sigc
		cancel()
		c.Errorln("cleaning up...")
		<-sigc
		c.Exit(1)
	}()
	// Note that the flag package stops parsing flags after the first
	// non-flag argument (i.e., the first argument that does not begin
	// with "-"); thus flag.Args()[1:] contains all the flags and
	// arguments for the command in flags.Arg[0].
	fn(c, ctx, flags.Args()[1:]...)
	c.Exit(0)
}

// Fatal formats a message in the manner of fmt.Print, prints it to
// stderr, and then exits the tool.
func (c *Cmd) Fatal(v ...interface{}) {
	fmt.Fprintln(c.Stderr, v...)
	c.Exit(1)
}

// Fatalf formats a message in the manner of fmt.Printf, prints it to
// stderr, and then exits the tool.
func (c *Cmd) Fatalf(format string, v ...interface{}) {
	fmt.Fprintf(c.Stderr, format, v...)
	fmt.Fprintln(c.Stderr)
	c.Exit(1)
}

// Errorln formats a message in the manner of fmt.Println and prints it
// to stderr.
func (c Cmd) Errorln(v ...interface{}) {
	fmt.Fprintln(c.Stderr, v...)
}

// Errorf formats a message in the manner of fmt.Printf and prints it
// to stderr.
func (c *Cmd) Errorf(format string, v ...interface{}) {
	fmt.Fprintf(c.Stderr, format, v...)
}

// Println formats a message in the manner of fmt.Println and prints
// it to stdout.
func (c *Cmd) Println(v ...interface{}) {
	fmt.Fprintln(c.Stdout, v...)
}

// Printf formats a message in the manner of fmt.Printf and prints it
// to stdout.
func (c *Cmd) Printf(format string, v ...interface{}) {
	fmt.Fprintf(c.Stdout, format, v...)
}

// Exit causes the command to exit with the provided status code.
// Exit ensures that command teardown is properly handled.
func (c *Cmd) Exit(code int) {
	for _, fn := range c.onexits {
		fn()
	}
	os.Exit(code)
}

// Flags initializes and returns the FlagSet used by this Cmd instance.
// The user should parse this flagset before invoking (*Cmd).Main, e.g.:
//
//	cmd.Flags().Parse(os.Args[1:])
func (c *Cmd) Flags() *flag.FlagSet {
	if c.flags == nil {
		c.flags = flag.NewFlagSet("physl", flag.ExitOnError)
		c.flags.Usage = func() { c.mainUsage(c.flags) }
		c.flags.StringVar(&c.ConfigFile, "config", c.DefaultConfigFile, "path to configuration file; otherwise use default (builtin) config")
		c.flags.StringVar(&c.httpFlag, "http", "", "run a diagnostic HTTP server on this port")
		c.flags.StringVar(&c.cpuProfileFlag, "cpuprofile", "", "capture a CPU profile and deposit it to the provided path")
		c.flags.StringVar(&c.logFlag, "log", "info", "set the log level: off, error, info, debug")
		// Add flags to override configuration.
		c.configFlags = make(map[string]*string)
		for _, key := range config.AllKeys {
			c.configFlags[key] = c.flags.String(key, "",
				fmt.Sprintf("override %s from config; see physl config -help", key))
		}
	}
	return c.flags
}

func (c *Cmd) commands() map[string]Func {
	m := make(map[string]Func)
	for name, f := range commands {
		m[name] = f
	}
	for name, f := range c.Commands {
		m[name] = f
	}
	return m
}

func (c *Cmd) onexit(fn func()) {
	c.onexits = append(c.onexits, fn)
}

// locality returns the configured locality.
func (c *Cmd) locality() *locality.Locality {
	l, err := c.Config.Locality()
	if err != nil {
		c.Fatal(err)
	}
	return l
}

// compiler returns a compiler over the standard catalogue for
// locality l.
func (c *Cmd) compiler(l *locality.Locality) *compiler.Compiler {
	return phylanx.NewCompiler(l, c.Log)
}

type logConfig struct {
	config.Config
	logger *log.Logger
}

func (c *logConfig) Logger() (*log.Logger, error) {
	return c.logger, nil
}
