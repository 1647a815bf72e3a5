package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/unihaven/placement-api/internal/model"
	"github.com/unihaven/placement-api/internal/service"
)

// queryParser collects the first malformed query parameter.
type queryParser struct {
	c   echo.Context
	err error
}

func (p *queryParser) raw(name string) string {
	return strings.TrimSpace(p.c.QueryParam(name))
}

func (p *queryParser) fail(name, want string) {
	if p.err == nil {
		p.err = service.Validation("invalid_"+name, fmt.Sprintf("%s must be %s", name, want))
	}
}

func (p *queryParser) uint32(name string) *uint32 {
	s := p.raw(name)
	if s == "" {
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		p.fail(name, "a non-negative integer")
		return nil
	}
	v := uint32(n)
	return &v
}

func (p *queryParser) uint64(name string) *uint64 {
	s := p.raw(name)
	if s == "" {
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		p.fail(name, "a positive integer")
		return nil
	}
	return &n
}

func (p *queryParser) decimal(name string) *decimal.Decimal {
	s := p.raw(name)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		p.fail(name, "a non-negative amount")
		return nil
	}
	return &d
}

func (p *queryParser) date(name string) model.Date {
	s := p.raw(name)
	if s == "" {
		return model.Date{}
	}
	d, err := model.ParseDate(s)
	if err != nil {
		p.fail(name, "a date formatted YYYY-MM-DD")
		return model.Date{}
	}
	return d
}

func (p *queryParser) int(name string) int {
	s := p.raw(name)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		p.fail(name, "an integer")
		return 0
	}
	return n
}
