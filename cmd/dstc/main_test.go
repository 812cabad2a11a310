package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FocuswithJustin/dstckit/core/cas"
	"github.com/FocuswithJustin/dstckit/internal/dataset/datasettest"
	"github.com/FocuswithJustin/dstckit/internal/score"
)

// Test helper functions

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = old })
	return &buf
}

func sampleGlobals(t *testing.T) *Globals {
	t.Helper()
	c := datasettest.NewCorpus(t)
	c.WriteSample()
	return &Globals{
		DataRoot:  c.Root,
		ConfigDir: c.ConfigDir,
		Ontology:  c.WriteOntology(),
		LogLevel:  "error",
		Workers:   2,
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestVersionCmd(t *testing.T) {
	out := captureStdout(t)
	cmd := &VersionCmd{}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got, want := out.String(), "dstc version "+version+"\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestMainPipeline(t *testing.T) {
	ctx := context.Background()
	g := sampleGlobals(t)
	dir := t.TempDir()
	g.MetricsFile = filepath.Join(dir, "dstc.prom")
	trackfile := filepath.Join(dir, "baseline.json")

	baseline := &BaselineMainCmd{Dataset: datasettest.Dataset, Trackfile: trackfile, Method: 1}
	if err := baseline.Run(g, ctx); err != nil {
		t.Fatalf("baseline main failed: %v", err)
	}
	if !strings.Contains(readFile(t, g.MetricsFile), "dstc_projection_utterances_total") {
		t.Error("metrics file misses the projection counters")
	}

	// The tracker carries the ATTRACTION frame into the FOOD O-turn.
	out := captureStdout(t)
	check := &CheckMainCmd{Dataset: datasettest.Dataset, Trackfile: trackfile}
	if err := check.Run(g, ctx); err != nil {
		t.Fatalf("check main failed: %v", err)
	}
	want := "Found 1 errors:\n1 utterance 2 NEIGHBOURHOOD - do not recognise slot\n"
	if got := out.String(); got != want {
		t.Errorf("check output = %q, want %q", got, want)
	}

	scorefile := filepath.Join(dir, "score.csv")
	database := filepath.Join(dir, "scores.db")
	archiveDir := filepath.Join(dir, "archive")
	sc := &ScoreMainCmd{ScoreFlags{
		Dataset:   datasettest.Dataset,
		Trackfile: trackfile,
		Scorefile: scorefile,
		Database:  database,
		Archive:   archiveDir,
	}}
	if err := sc.Run(g, ctx); err != nil {
		t.Fatalf("score main failed: %v", err)
	}
	csv := readFile(t, scorefile)
	if !strings.HasPrefix(csv, score.MainHeader+"\n") {
		t.Errorf("score file starts with %q", strings.SplitN(csv, "\n", 2)[0])
	}
	if !strings.Contains(csv, "basic,dataset,,,,"+datasettest.Dataset+"\n") {
		t.Error("score file misses the dataset line")
	}

	fingerprint := cas.Fingerprint([]byte(readFile(t, trackfile)))
	out.Reset()
	runs := &ReportRunsCmd{Database: database, Fingerprint: fingerprint}
	if err := runs.Run(g, ctx); err != nil {
		t.Fatalf("report runs failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 1 || !strings.Contains(lines[0], fingerprint) {
		t.Fatalf("report runs = %q", out.String())
	}

	out.Reset()
	show := &ReportShowCmd{Database: database, RunID: strings.Fields(lines[0])[0]}
	if err := show.Run(g, ctx); err != nil {
		t.Fatalf("report show failed: %v", err)
	}
	if out.String() != csv {
		t.Errorf("stored table differs from score file:\n%s\nvs\n%s", out.String(), csv)
	}

	out.Reset()
	fetch := &ReportFetchCmd{Archive: archiveDir, Fingerprint: fingerprint}
	if err := fetch.Run(g); err != nil {
		t.Fatalf("report fetch failed: %v", err)
	}
	if out.String() != readFile(t, trackfile) {
		t.Error("archived file differs from the tracker file")
	}
}

func TestSAPPipeline(t *testing.T) {
	ctx := context.Background()
	g := sampleGlobals(t)
	dir := t.TempDir()
	model := filepath.Join(dir, "sap.model.json")
	outfile := filepath.Join(dir, "sap.json")

	train := &BaselineSAPCmd{PilotFlags{
		Trainset:  datasettest.Dataset,
		Testset:   datasettest.Dataset,
		Roletype:  "GUIDE",
		Modelfile: model,
		Outfile:   outfile,
	}}
	if err := train.Run(g, ctx); err != nil {
		t.Fatalf("baseline sap failed: %v", err)
	}
	trained := readFile(t, outfile)

	reload := &BaselineSAPCmd{PilotFlags{
		Testset:   datasettest.Dataset,
		Roletype:  "GUIDE",
		Modelfile: model,
		Load:      true,
		Outfile:   outfile,
	}}
	if err := reload.Run(g, ctx); err != nil {
		t.Fatalf("baseline sap --load failed: %v", err)
	}
	if !strings.Contains(readFile(t, outfile), `"act": "RES"`) || !strings.Contains(trained, `"act": "RES"`) {
		t.Error("SAP output misses the predicted RES act")
	}

	out := captureStdout(t)
	check := &CheckSAPCmd{CheckPilotFlags{Dataset: datasettest.Dataset, Jsonfile: outfile, Roletype: "GUIDE"}}
	if err := check.Run(g, ctx); err != nil {
		t.Fatalf("check sap failed: %v", err)
	}
	if got := out.String(); got != "Found no errors, trackfile is valid\n" {
		t.Errorf("check output = %q", got)
	}

	out.Reset()
	sc := &ScoreSAPCmd{PilotScoreFlags{
		ScoreFlags: ScoreFlags{Dataset: datasettest.Dataset, Trackfile: outfile},
		Roletype:   "GUIDE",
	}}
	if err := sc.Run(g, ctx); err != nil {
		t.Fatalf("score sap failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 7 || lines[0] != score.PilotHeader {
		t.Errorf("score output = %q", out.String())
	}
}

func TestBaselinePilotFlagErrors(t *testing.T) {
	g := sampleGlobals(t)
	tests := []struct {
		name  string
		flags PilotFlags
	}{
		{"load without model", PilotFlags{Testset: datasettest.Dataset, Roletype: "GUIDE", Load: true, Outfile: "x.json"}},
		{"no trainset", PilotFlags{Testset: datasettest.Dataset, Roletype: "GUIDE", Outfile: "x.json"}},
		{"unknown dataset", PilotFlags{Trainset: "nope", Testset: datasettest.Dataset, Roletype: "GUIDE", Outfile: "x.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &BaselineSLUCmd{tt.flags}
			if err := cmd.Run(g, context.Background()); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSLGPipeline(t *testing.T) {
	ctx := context.Background()
	g := sampleGlobals(t)
	outfile := filepath.Join(t.TempDir(), "slg.json")

	run := &BaselineSLGCmd{PilotFlags{
		Trainset: datasettest.Dataset,
		Testset:  datasettest.Dataset,
		Roletype: "GUIDE",
		Outfile:  outfile,
	}}
	if err := run.Run(g, ctx); err != nil {
		t.Fatalf("baseline slg failed: %v", err)
	}

	out := captureStdout(t)
	check := &CheckSLGCmd{CheckPilotFlags{Dataset: datasettest.Dataset, Jsonfile: outfile, Roletype: "GUIDE"}}
	if err := check.Run(g, ctx); err != nil {
		t.Fatalf("check slg failed: %v", err)
	}
	if got := out.String(); got != "Found no errors, trackfile is valid\n" {
		t.Errorf("check output = %q", got)
	}

	out.Reset()
	sc := &ScoreSLGCmd{PilotScoreFlags{
		ScoreFlags: ScoreFlags{Dataset: datasettest.Dataset, Trackfile: outfile},
		Roletype:   "GUIDE",
	}}
	if err := sc.Run(g, ctx); err != nil {
		t.Fatalf("score slg failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "SLG, generated, all, bleu, 3, ") {
		t.Errorf("score output = %q", out.String())
	}
}

func TestConvertSLGCmd(t *testing.T) {
	c := datasettest.NewCorpus(t)
	for _, s := range datasettest.Sessions() {
		c.WriteJSON(s.Dir, "log.json", s.Log)
		c.WriteJSON(s.Dir, "label.json", s.Labels)
	}
	c.Flist(datasettest.Dataset, "001", "002")
	g := &Globals{DataRoot: c.Root, ConfigDir: c.ConfigDir, LogLevel: "error"}

	out := captureStdout(t)
	cmd := &ConvertSLGCmd{Dataset: datasettest.Dataset, Task: "MAIN"}
	if err := cmd.Run(g, context.Background()); err != nil {
		t.Fatalf("convert slg failed: %v", err)
	}
	if got := out.String(); got != "Converted 2 sessions\n" {
		t.Errorf("output = %q", got)
	}
	if _, err := os.Stat(filepath.Join(c.Root, "001", "slg.tourist.label.json")); err != nil {
		t.Errorf("converted file missing: %v", err)
	}
}

func TestTagCmds(t *testing.T) {
	tests := []struct {
		name string
		cmd  interface{ Run() error }
		want string
	}{
		{
			name: "parse chars",
			cmd:  &TagParseCmd{Text: `<AREA cat="NEIGHBORHOOD">圣淘沙</AREA> 有`, Mode: "char"},
			want: "圣\tB-AREA_NEIGHBORHOOD\n淘\tI-AREA_NEIGHBORHOOD\n沙\tI-AREA_NEIGHBORHOOD\n有\tO\n",
		},
		{
			name: "parse words",
			cmd:  &TagParseCmd{Text: `<PLACE cat="NAME">Sentosa Island</PLACE> is nice`, Mode: "word"},
			want: "Sentosa\tB-PLACE_NAME\nIsland\tI-PLACE_NAME\nis\tO\nnice\tO\n",
		},
		{
			name: "render",
			cmd:  &TagRenderCmd{Text: `<FOOD cat="DISH">fish &amp; chips</FOOD>`, Mode: "word"},
			want: "<FOOD cat=\"DISH\">fish &amp; chips</FOOD>\n",
		},
		{
			name: "project",
			cmd: &TagProjectCmd{
				Target:    "你好 世界",
				Source:    `<GREET cat="HI">hello</GREET> <PLACE cat="NAME">world</PLACE>`,
				Alignment: `[["你好", [0]], ["世界", [1]]]`,
			},
			want: "<GREET cat=\"HI\">你好</GREET> <PLACE cat=\"NAME\">世界</PLACE>\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureStdout(t)
			if err := tt.cmd.Run(); err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if got := out.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTagParseErrors(t *testing.T) {
	tests := []string{
		`<AREA>open`,
		`a </AREA>`,
		`<A><B>x</B></A>`,
	}
	for _, text := range tests {
		cmd := &TagParseCmd{Text: text, Mode: "char"}
		if err := cmd.Run(); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", text)
		}
	}
}

func TestBleuCmd(t *testing.T) {
	dir := t.TempDir()
	test := filepath.Join(dir, "test.txt")
	ref := filepath.Join(dir, "ref.txt")
	if err := os.WriteFile(test, []byte("the cat sat on the mat\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ref, []byte("the cat sat on the mat\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out := captureStdout(t)
	cmd := &BleuCmd{Test: test, Reference: ref, Raw: true, Order: 4}
	if err := cmd.Run(&Globals{LogLevel: "error"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := "Test systems: testsys\nReference systems: refsys\nBLEU score: 1\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}
