// Package insts parses the instruction text that drives the cache model.
// One instruction per line, in the form `LOAD R1, 0x1A4`. Parsing validates
// operations, register names, and addresses so that the cache model only
// ever sees well-formed, non-negative addresses.
package insts

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/cachevis/cache"
)

// An Inst is one parsed memory instruction.
type Inst struct {
	Op       cache.Op
	Register string
	Address  int64
}

func (i Inst) String() string {
	return fmt.Sprintf("%s %s, 0x%X", i.Op, i.Register, i.Address)
}

// Parse parses a single instruction line.
func Parse(line string) (Inst, error) {
	fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
	if len(fields) != 3 {
		return Inst{}, fmt.Errorf(
			"expected `OP REG, ADDR`, got %q", strings.TrimSpace(line))
	}

	op, err := parseOp(fields[0])
	if err != nil {
		return Inst{}, err
	}

	register, err := parseRegister(fields[1])
	if err != nil {
		return Inst{}, err
	}

	addr, err := parseAddress(fields[2])
	if err != nil {
		return Inst{}, err
	}

	return Inst{Op: op, Register: register, Address: addr}, nil
}

// ParseProgram parses a whole instruction batch, one instruction per line.
// Blank lines and lines starting with `#` are skipped. The returned slice
// preserves input order; execution order must match it (replacement
// counters are order-sensitive).
func ParseProgram(r io.Reader) ([]Inst, error) {
	var program []Inst

	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		inst, err := Parse(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		program = append(program, inst)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return program, nil
}

func parseOp(s string) (cache.Op, error) {
	switch strings.ToUpper(s) {
	case "LOAD":
		return cache.OpLoad, nil
	case "STORE":
		return cache.OpStore, nil
	}

	return 0, fmt.Errorf("unknown operation %q", s)
}

func parseRegister(s string) (string, error) {
	name := strings.ToUpper(s)

	if len(name) < 2 || name[0] != 'R' {
		return "", fmt.Errorf("invalid register %q", s)
	}

	num, err := strconv.Atoi(name[1:])
	if err != nil || num < 0 {
		return "", fmt.Errorf("invalid register %q", s)
	}

	return name, nil
}

func parseAddress(s string) (int64, error) {
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("address must be non-negative, got %q", s)
	}

	// Base 0 accepts the 0x-prefixed hex the UI produces, plus plain
	// decimal.
	addr, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}

	return addr, nil
}
