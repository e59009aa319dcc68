// Package reporting writes the machine-readable xUnit report for a
// regression run.
package reporting

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"time"
)

type property struct {
	XMLName xml.Name `xml:"property"`
	Name    string   `xml:"name,attr"`
	Value   string   `xml:"value,attr"`
}

type failure struct {
	XMLName xml.Name `xml:"failure"`
	Message string   `xml:"message,attr"`
}

type skipped struct {
	XMLName xml.Name `xml:"skipped"`
}

type testcase struct {
	XMLName   xml.Name `xml:"testcase"`
	Name      string   `xml:"name,attr"`
	Classname string   `xml:"classname,attr"`
	File      string   `xml:"file,attr"`
	Lineno    int      `xml:"lineno,attr"`
	Time      string   `xml:"time,attr"`
	SimTimeNS string   `xml:"sim_time_ns,attr"`
	RatioTime string   `xml:"ratio_time,attr"`
	Failure   *failure `xml:"failure,omitempty"`
	Skipped   *skipped `xml:"skipped,omitempty"`
}

type testsuite struct {
	XMLName    xml.Name   `xml:"testsuite"`
	Name       string     `xml:"name,attr"`
	Package    string     `xml:"package,attr"`
	Properties []property `xml:"properties>property"`
	Cases      []*testcase
}

type testsuites struct {
	XMLName xml.Name `xml:"testsuites"`
	Suites  []*testsuite
}

// XUnitReporter accumulates testcase records and writes them out as a
// single xUnit XML document. AddTestcase opens a new case; AddFailure and
// AddSkipped attach to the most recently added one.
type XUnitReporter struct {
	filename string
	doc      testsuites
	cur      *testsuite
	curCase  *testcase
}

// NewXUnitReporter creates a reporter that writes to filename.
func NewXUnitReporter(filename string) *XUnitReporter {
	return &XUnitReporter{filename: filename}
}

// AddTestsuite opens a new suite; subsequent testcases attach to it.
func (r *XUnitReporter) AddTestsuite(name, pkg string) {
	suite := &testsuite{Name: name, Package: pkg}
	r.doc.Suites = append(r.doc.Suites, suite)
	r.cur = suite
	r.curCase = nil
}

// AddProperty attaches a property to the current suite.
func (r *XUnitReporter) AddProperty(name, value string) {
	if r.cur == nil {
		r.AddTestsuite("all", "all")
	}
	r.cur.Properties = append(r.cur.Properties, property{Name: name, Value: value})
}

// AddTestcase records one test execution.
func (r *XUnitReporter) AddTestcase(name, classname, file string, lineno int, wall time.Duration, simNS, ratio float64) {
	if r.cur == nil {
		r.AddTestsuite("all", "all")
	}
	tc := &testcase{
		Name:      name,
		Classname: classname,
		File:      file,
		Lineno:    lineno,
		Time:      strconv.FormatFloat(wall.Seconds(), 'g', -1, 64),
		SimTimeNS: strconv.FormatFloat(simNS, 'g', -1, 64),
		RatioTime: strconv.FormatFloat(ratio, 'g', -1, 64),
	}
	r.cur.Cases = append(r.cur.Cases, tc)
	r.curCase = tc
}

// AddFailure marks the current testcase as failed.
func (r *XUnitReporter) AddFailure(message string) {
	if r.curCase == nil {
		return
	}
	r.curCase.Failure = &failure{Message: message}
}

// AddSkipped marks the current testcase as skipped.
func (r *XUnitReporter) AddSkipped() {
	if r.curCase == nil {
		return
	}
	r.curCase.Skipped = &skipped{}
}

// Write flushes the document to disk. Called once, at teardown.
func (r *XUnitReporter) Write() error {
	data, err := xml.MarshalIndent(&r.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal xunit report: %w", err)
	}
	data = append([]byte(xml.Header), data...)
	if err := os.WriteFile(r.filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write xunit report %q: %w", r.filename, err)
	}
	return nil
}
