package main

import (
	"github.com/fatih/color"
)

var (
	good   = color.New(color.FgGreen)
	bad    = color.New(color.FgRed)
	title  = color.New(color.Bold)
	subtle = color.New(color.FgHiBlack)
)
