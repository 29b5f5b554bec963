package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var errAborted = errors.New("aborted")

// promptLine prints label and reads one trimmed line. EOF with no input is
// reported as errAborted.
func promptLine(in io.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", err
		}
		if strings.TrimSpace(line) == "" {
			return "", errAborted
		}
	}
	return strings.TrimSpace(line), nil
}

// promptChoice asks for a 1-based index in [1,n]. An empty answer or "q"
// aborts.
func promptChoice(in io.Reader, out io.Writer, n int) (int, error) {
	answer, err := promptLine(in, out, fmt.Sprintf("Pick a show [1-%d, q to quit]: ", n))
	if err != nil {
		return 0, err
	}
	return parseChoice(answer, n)
}

func parseChoice(answer string, n int) (int, error) {
	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer == "" || answer == "q" || answer == "quit" {
		return 0, errAborted
	}
	v, err := strconv.Atoi(answer)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", answer)
	}
	if v < 1 || v > n {
		return 0, fmt.Errorf("choice %d out of range (1-%d)", v, n)
	}
	return v, nil
}
