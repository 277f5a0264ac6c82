package main

import (
	"fmt"
	"io"
	"runtime"
	"text/template"
	"time"
)

type Report struct {
	// Configuration
	Duration time.Duration
	Keys     int
	Readers  int
	Writers  int

	// Results
	TotalTime   time.Duration
	ReadOps     int64
	ReadMisses  int64
	WriteOps    int64
	CellStores  int64
	Corruptions int64
	FinalLen    int
	FinalCap    int

	MemStatsStart runtime.MemStats
	MemStatsEnd   runtime.MemStats
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# Sparse Map Stress Report

## Configuration
- **Run Duration:** {{.Duration}}
- **Key Space:** {{.Keys}}
- **Readers:** {{.Readers}}
- **Writers:** {{.Writers}}

## Results
- **Total Time:** {{.TotalTime}}
- **Read Ops:** {{.ReadOps}} ({{rate .ReadOps .TotalTime}} ops/s, {{.ReadMisses}} misses)
- **Write Ops:** {{.WriteOps}} ({{rate .WriteOps .TotalTime}} ops/s)
- **Cell Stores:** {{.CellStores}}
- **Corrupt Reads:** {{.Corruptions}}
- **Final Len/Cap:** {{.FinalLen}}/{{.FinalCap}}

## Memory (Raw Bytes)
- Heap Alloc:  {{.MemStatsStart.HeapAlloc}} (start) -> {{.MemStatsEnd.HeapAlloc}} (end) -> delta: {{bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc}}
- Total Alloc: {{.MemStatsStart.TotalAlloc}} (start) -> {{.MemStatsEnd.TotalAlloc}} (end) -> delta: {{bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc}}
- Sys Memory:  {{.MemStatsStart.Sys}} (start) -> {{.MemStatsEnd.Sys}} (end) -> delta: {{bsub .MemStatsEnd.Sys .MemStatsStart.Sys}}
- Num GC:      {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}} cycles during the run
`

	fm := template.FuncMap{
		"bsub": func(a, b uint64) int64 {
			return int64(a) - int64(b)
		},
		"usub": func(a, b uint32) uint32 {
			return a - b
		},
		"rate": func(ops int64, d time.Duration) string {
			if d <= 0 {
				return "n/a"
			}
			return fmt.Sprintf("%.0f", float64(ops)/d.Seconds())
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}
