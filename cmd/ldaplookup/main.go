package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/terraform-plugin-log/tflog"
	"github.com/hashicorp/terraform-plugin-log/tfsdklog"
	"github.com/mjwhitta/cli"

	"github.com/isometry/ldap-lookup/internal/config"
	"github.com/isometry/ldap-lookup/internal/ldap"
	"github.com/isometry/ldap-lookup/internal/session"
)

// Version info
var version = "0.1.0"

// Exit codes
const (
	ExitSuccess = iota
	ExitError
	ExitMissingArg
	ExitNotFound
)

var flags struct {
	config  string
	uid     string
	group   string
	debug   bool
	version bool
}

var (
	command = "menu"
	cmdArgs []string
)

func init() {
	cli.Align = true
	cli.Banner = fmt.Sprintf("%s [OPTIONS] [command] [args...]", os.Args[0])
	cli.Info(
		"Look up users and groups in an LDAP directory.",
		"",
		"Settings come from the optional YAML config file and LDAP_*",
		"environment variables (LDAP_HOST, LDAP_BASE, LDAP_USERNAME, ...).",
	)
	cli.ExitStatus(
		"0 - Success",
		"1 - Error",
		"2 - Missing argument",
		"3 - Not found",
	)

	cli.Flag(&flags.config, "c", "config", "", "YAML config file (default $LDAP_CONFIG)")
	cli.Flag(&flags.uid, "u", "uid", "", "User ID")
	cli.Flag(&flags.group, "g", "group", "", "Group name")
	cli.Flag(&flags.debug, "d", "debug", false, "Trace every LDAP search")
	cli.Flag(&flags.version, "V", "version", false, "Show version")

	cli.Section("Commands",
		"  name    <uid>          Display name\n",
		"  email   <uid>          Email address\n",
		"  dept    <uid>          Department\n",
		"  exists  <uid>          Check that the uid exists\n",
		"  groups  <uid>          Groups the user belongs to\n",
		"  member  <uid> <group>  Check group membership\n",
		"  list    <group>        Group email and member listing\n",
		"  test                   Connection diagnostics\n",
		"  menu                   Interactive menu (default)",
	)

	cli.Parse()

	if flags.version {
		fmt.Println(version)
		os.Exit(ExitSuccess)
	}

	if cli.NArg() > 0 {
		command = cli.Arg(0)
		cmdArgs = cli.Args()[1:]
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx)
	stop()
	os.Exit(code)
}

func run(ctx context.Context) int {
	cfg, err := config.Load(flags.config, os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	if flags.debug {
		cfg = cfg.With(func(c *ldap.Config) { c.Debug = true })
	}

	ctx = newLogger(ctx, cfg.Debug)
	tflog.Debug(ctx, "Starting ldaplookup", map[string]any{
		"version": version,
		"command": command,
		"host":    cfg.Host,
	})

	dir := ldap.New(cfg)

	if command == "menu" {
		s := session.New(dir, os.Stdin, os.Stdout, session.WithUID(arg(0, flags.uid)), session.WithGroup(flags.group))
		if err := s.Run(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitError
		}
		return ExitSuccess
	}

	return execute(ctx, dir, command)
}

func newLogger(ctx context.Context, debug bool) context.Context {
	level := hclog.Warn
	if debug {
		level = hclog.Debug
	}
	return tfsdklog.NewRootProviderLogger(ctx,
		tfsdklog.WithLogName("ldaplookup"),
		tfsdklog.WithLevel(level),
		tfsdklog.WithoutLocation(),
	)
}

func execute(ctx context.Context, dir session.Lookup, command string) int {
	var (
		out   string
		found = true
		err   error
	)

	switch command {
	case "name":
		uid, code := requireArg(0, flags.uid, "uid")
		if code != ExitSuccess {
			return code
		}
		out, err = dir.GetSimpleName(ctx, uid)
		found = out != ldap.NotAvailable
	case "email", "dept":
		uid, code := requireArg(0, flags.uid, "uid")
		if code != ExitSuccess {
			return code
		}
		lookup := dir.GetEmail
		if command == "dept" {
			lookup = dir.GetDept
		}
		var value string
		value, found, err = lookup(ctx, uid)
		out = session.RenderOptional(value, found)
	case "exists":
		uid, code := requireArg(0, flags.uid, "uid")
		if code != ExitSuccess {
			return code
		}
		found, err = dir.UIDExists(ctx, uid)
		out = session.Render(found)
	case "groups":
		uid, code := requireArg(0, flags.uid, "uid")
		if code != ExitSuccess {
			return code
		}
		var groups []string
		groups, err = dir.AllGroupsForUser(ctx, uid)
		out = session.Render(groups)
	case "member":
		uid, code := requireArg(0, flags.uid, "uid")
		if code != ExitSuccess {
			return code
		}
		group, code := requireArg(1, flags.group, "group")
		if code != ExitSuccess {
			return code
		}
		found, err = dir.IsMemberOfGroup(ctx, uid, group)
		out = session.Render(found)
	case "list":
		group, code := requireArg(0, flags.group, "group")
		if code != ExitSuccess {
			return code
		}
		var list ldap.DistributionList
		list, err = dir.GetEmailDistributionList(ctx, group)
		found = list.Found()
		out = session.Render(list)
	case "test":
		report := dir.TestConnection(ctx)
		found = report.Success
		out = session.Render(report)
	case "help":
		cli.Usage(ExitSuccess)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		cli.Usage(ExitError)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}

	fmt.Println(out)

	switch {
	case command == "test" && !found:
		return ExitError
	case !found:
		return ExitNotFound
	default:
		return ExitSuccess
	}
}

// arg returns the positional argument at i, or fallback.
func arg(i int, fallback string) string {
	if i < len(cmdArgs) && cmdArgs[i] != "" {
		return cmdArgs[i]
	}
	return fallback
}

func requireArg(i int, fallback, name string) (string, int) {
	value := arg(i, fallback)
	if value == "" {
		fmt.Fprintf(os.Stderr, "Missing %s\n", name)
		return "", ExitMissingArg
	}
	return value, ExitSuccess
}
