package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"kiraye/api"
)

// secretFlag returns the flag value, or reads it from the terminal without
// echo when the flag was not given.
func secretFlag(cmd *cobra.Command, value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return readLine(cmd, prompt)
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func readLine(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)

	// byte at a time so consecutive prompts share stdin without a buffer
	var sb strings.Builder
	in, buf := cmd.InOrStdin(), make([]byte, 1)
	for {
		n, err := in.Read(buf)
		if n == 1 {
			if buf[0] == '\n' {
				break
			}
			sb.WriteByte(buf[0])
		}
		if err != nil {
			if sb.Len() == 0 {
				return "", err
			}
			break
		}
	}
	return strings.TrimRight(sb.String(), "\r"), nil
}

// confirm asks a yes/no question unless --yes was passed.
func confirm(cmd *cobra.Command, yes bool, question string) bool {
	if yes {
		return true
	}
	answer, err := readLine(cmd, question+" [y/N] ")
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// userError renders err the way the client shows it, with one line per
// field problem.
func userError(err error) error {
	e, ok := api.As(err)
	if !ok {
		return err
	}
	msg := e.Message
	if len(e.Fields) > 0 {
		msg = strings.TrimSpace(msg + "\n  " + strings.Join(e.Lines(), "\n  "))
	}
	if msg == "" {
		msg = e.Error()
	}
	return fmt.Errorf("%s", msg)
}
