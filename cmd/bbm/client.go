package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ybyygu/vasp-tools/internal/chem"
	"github.com/ybyygu/vasp-tools/internal/transport"
)

// defaultPattern is the sentinel substring shared by every engine banner
// variant: VASP 5 prints "POSITIONS: read from stdin", VASP 6 "POSITIONS:
// reading from stdin".
const defaultPattern = "POSITIONS: read"

func clientCmd() *cobra.Command {
	var sockPath string
	var quit bool
	var pattern string
	var inputPath string

	cmd := &cobra.Command{
		Use:   "client",
		Short: "issue one request against a running bbm server",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := transport.Dial(sockPath)
			if err != nil {
				return fmt.Errorf("bbm: %w", err)
			}
			defer c.Close()

			if quit {
				return c.Quit()
			}
			return runClientRequest(c, pattern, inputPath)
		},
	}
	cmd.Flags().StringVarP(&sockPath, "socket", "u", "vasp.sock", "path to the control-plane socket to dial")
	cmd.Flags().BoolVarP(&quit, "quit", "q", false, "send a quit signal to the server and exit")
	cmd.Flags().StringVar(&pattern, "pattern", defaultPattern, "sentinel substring marking the end of the engine's response")
	cmd.Flags().StringVar(&inputPath, "input", "", "read the geometry from this file instead of standard input")
	return cmd
}

// readGeometryText reads the raw geometry block either from inputPath or,
// when geometry is piped in, from standard input. An interactive terminal
// on stdin with no --input is an error: nobody types a POSCAR by hand.
func readGeometryText(inputPath string) ([]byte, error) {
	if inputPath != "" {
		data, err := os.ReadFile(inputPath)
		if err != nil {
			return nil, fmt.Errorf("bbm: read geometry from %s: %w", inputPath, err)
		}
		return data, nil
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, fmt.Errorf("bbm: stdin is a terminal; pipe a geometry in or pass --input <file>")
	}
	data, err := io.ReadAll(bufio.NewReader(os.Stdin))
	if err != nil {
		return nil, fmt.Errorf("bbm: read geometry from stdin: %w", err)
	}
	return data, nil
}

// runClientRequest reads a POSCAR-format geometry, feeds its scaled
// positions to the server, waits for the next sentinel, and writes the
// parsed energy/forces to standard output as a text block.
func runClientRequest(c *transport.Client, pattern, inputPath string) error {
	data, err := readGeometryText(inputPath)
	if err != nil {
		return err
	}

	mol, err := chem.ParsePOSCAR(string(data))
	if err != nil {
		return fmt.Errorf("bbm: %w", err)
	}

	scaled, err := mol.FormatScaledPositions()
	if err != nil {
		return fmt.Errorf("bbm: %w", err)
	}

	if err := c.WriteInput([]byte(scaled)); err != nil {
		return fmt.Errorf("bbm: write input: %w", err)
	}
	out, err := c.ReadUntil(pattern)
	if err != nil {
		return fmt.Errorf("bbm: read output: %w", err)
	}

	result, err := chem.ParseEnergyForces(out)
	if err != nil {
		return fmt.Errorf("bbm: %w", err)
	}

	fmt.Print(chem.FormatResult(result))
	return nil
}
