package main

import (
	"fmt"
	"math"
	"os"

	"github.com/gocarina/gocsv"
)

// EvalRecord is one row of tune_log.csv. Parameter values are the clamped
// values actually run.
type EvalRecord struct {
	Eval          int     `csv:"eval"`
	Fitness       float64 `csv:"fitness"`
	CollisionRate float64 `csv:"collision_rate"`
	FailureRate   float64 `csv:"failure_rate"`
	AvoidRate     float64 `csv:"avoid_rate"`
	TraceLength   float64 `csv:"trace_length"`
	SampleCount   int     `csv:"sample_count"`
	PitchStep     float64 `csv:"pitch_step"`
	YawStep       float64 `csv:"yaw_step"`
}

// newEvalRecord builds a row from clamped parameter values in Specs order.
func newEvalRecord(eval int, fitness float64, clamped []float64) EvalRecord {
	return EvalRecord{
		Eval:        eval,
		Fitness:     fitness,
		TraceLength: clamped[0],
		SampleCount: int(math.Round(clamped[1])),
		PitchStep:   clamped[2],
		YawStep:     clamped[3],
	}
}

// evalLog appends EvalRecords to a CSV file, writing the header once.
type evalLog struct {
	file          *os.File
	headerWritten bool
}

func newEvalLog(path string) (*evalLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating eval log: %w", err)
	}
	return &evalLog{file: f}, nil
}

// Write appends one record.
func (l *evalLog) Write(rec EvalRecord) error {
	records := []*EvalRecord{&rec}
	if !l.headerWritten {
		if err := gocsv.Marshal(records, l.file); err != nil {
			return fmt.Errorf("writing eval record: %w", err)
		}
		l.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, l.file); err != nil {
		return fmt.Errorf("writing eval record: %w", err)
	}
	return nil
}

func (l *evalLog) Close() error {
	return l.file.Close()
}
