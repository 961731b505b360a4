// Package command defines the vibebridge-cli commands using urfave/cli/v2.
//
// Every command builds a signed connection.HTTPClient from the global
// flags, calls one bridge endpoint and prints the decoded response with
// the selected output formatter.
package command
