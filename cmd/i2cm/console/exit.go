package console

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

func Exit(code int, msg string, args ...interface{}) cli.ExitCoder {
	return cli.Exit(fmt.Sprintf(msg, args...), code)
}

// Usage reports a command line mistake with the usage exit code.
func Usage(c *cli.Context, msg string, args ...interface{}) cli.ExitCoder {
	return cli.Exit(fmt.Sprintf("%s\nusage: %s %s %s", fmt.Sprintf(msg, args...), c.App.Name, c.Command.FullName(), c.Command.ArgsUsage), 2)
}
