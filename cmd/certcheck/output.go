// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"sigs.k8s.io/yaml"

	"github.com/jeremyhahn/go-certcheck/pkg/certcheck"
	"github.com/jeremyhahn/go-certcheck/pkg/fingerprint"
)

// Output formats accepted by --format.
const (
	formatText         = "text"
	formatJSON         = "json"
	formatYAML         = "yaml"
	formatFingerprints = "fingerprints"
)

// report is the per-endpoint output record.
type report struct {
	URL    string            `json:"url"`
	Result *certcheck.Result `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// newReport builds a report from a check outcome.
func newReport(url string, result *certcheck.Result, err error) report {
	r := report{URL: url, Result: result}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

type renderFunc func(reports []report, single bool) ([]byte, error)

var renderers = map[string]renderFunc{
	formatText:         renderText,
	formatJSON:         renderJSON,
	formatYAML:         renderYAML,
	formatFingerprints: renderFingerprints,
}

// render encodes reports in the --format selected. A single report is
// emitted as an object rather than a one-element list.
func render(reports []report, single bool) ([]byte, error) {
	fn, ok := renderers[format]
	if !ok {
		return nil, fmt.Errorf("%w: unknown --format %q", ErrInvalidInput, format)
	}
	return fn(reports, single)
}

func payload(reports []report, single bool) any {
	if single && len(reports) == 1 {
		return reports[0]
	}
	return reports
}

func renderJSON(reports []report, single bool) ([]byte, error) {
	return renderJSONValue(payload(reports, single))
}

func renderYAML(reports []report, single bool) ([]byte, error) {
	return renderYAMLValue(payload(reports, single))
}

func renderJSONValue(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// renderYAMLValue goes through the json tags, so field names match the
// JSON output.
func renderYAMLValue(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

// renderFingerprints emits a JSON array of colon-separated fingerprints,
// skipping endpoints that failed.
func renderFingerprints(reports []report, _ bool) ([]byte, error) {
	fps := make([]string, 0, len(reports))
	for _, r := range reports {
		if r.Result == nil {
			continue
		}
		fps = append(fps, fingerprint.Format(r.Result.Fingerprint))
	}
	data, err := json.Marshal(fps)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func renderText(reports []report, _ bool) ([]byte, error) {
	var buf bytes.Buffer
	for i, r := range reports {
		if i > 0 {
			buf.WriteByte('\n')
		}
		tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "URL:\t%s\n", r.URL)
		if r.Result == nil {
			fmt.Fprintf(tw, "Error:\t%s\n", r.Error)
			_ = tw.Flush()
			continue
		}
		res := r.Result
		fmt.Fprintf(tw, "Subject:\t%s\n", res.Subject)
		fmt.Fprintf(tw, "Issuer:\t%s\n", res.Issuer)
		fmt.Fprintf(tw, "Valid From:\t%s\n", res.ValidFrom)
		fmt.Fprintf(tw, "Valid To:\t%s\n", res.ValidTo)
		fmt.Fprintf(tw, "SHA-256:\t%s\n", fingerprint.Format(res.Fingerprint))
		if res.SPKIPin != "" {
			fmt.Fprintf(tw, "SPKI SHA-256:\t%s\n", res.SPKIPin)
		}
		if res.ExpectedFingerprint != "" {
			fmt.Fprintf(tw, "Expected:\t%s\n", fingerprint.Format(res.ExpectedFingerprint))
			fmt.Fprintf(tw, "Matched:\t%t\n", res.FingerprintMatched)
		}
		if err := tw.Flush(); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
