package main

import (
	"encoding/json"
	"fmt"

	"github.com/FocuswithJustin/dstckit/core/projection"
	"github.com/FocuswithJustin/dstckit/core/semtag"
	"github.com/FocuswithJustin/dstckit/internal/logging"
)

// TagGroup contains helpers for inspecting semantic tag markup.
type TagGroup struct {
	Parse   TagParseCmd   `cmd:"" help:"Print the BIO label of every word of a tagged utterance"`
	Render  TagRenderCmd  `cmd:"" help:"Parse a tagged utterance and print it back as markup"`
	Project TagProjectCmd `cmd:"" help:"Project the tags of a source sentence onto an aligned target"`
}

func parseMode(s string) semtag.Mode {
	if s == "word" {
		return semtag.ModeWord
	}
	return semtag.ModeChar
}

// TagParseCmd prints one word per line with its label.
type TagParseCmd struct {
	Text  string `arg:"" help:"Tagged utterance"`
	Mode  string `default:"char" enum:"char,word" help:"Split text into characters or whitespace-separated words"`
	Spans bool   `help:"Print the tagged spans as JSON instead"`
}

func (c *TagParseCmd) Run() error {
	res, err := semtag.NewParser(parseMode(c.Mode)).Parse(c.Text)
	if err != nil {
		return err
	}
	if c.Spans {
		spans := res.Spans()
		if spans == nil {
			spans = []semtag.TaggedSpan{}
		}
		data, err := json.MarshalIndent(spans, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, string(data))
		return nil
	}
	for _, w := range res.Words {
		fmt.Fprintf(stdout, "%s\t%s\n", w.Word, semtag.FormatBIOLabel(w.BIO, w.Label()))
	}
	return nil
}

// TagRenderCmd normalizes markup through a parse and render round trip.
type TagRenderCmd struct {
	Text string `arg:"" help:"Tagged utterance"`
	Mode string `default:"char" enum:"char,word" help:"Split text into characters or whitespace-separated words"`
}

func (c *TagRenderCmd) Run() error {
	res, err := semtag.NewParser(parseMode(c.Mode)).Parse(c.Text)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, semtag.RenderResult(res))
	return nil
}

// TagProjectCmd projects word-mode source tags through an alignment.
type TagProjectCmd struct {
	Target    string `required:"" help:"Untagged target utterance"`
	Source    string `required:"" help:"Tagged source sentence (word mode markup)"`
	Alignment string `required:"" help:"JSON list of [token, [source indices]] pairs, one per target token"`
	Stats     bool   `help:"Also print projection statistics"`
}

func (c *TagProjectCmd) Run() error {
	source, err := semtag.NewParser(semtag.ModeWord).Parse(c.Source)
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}
	var align []projection.AlignmentEntry
	if err := json.Unmarshal([]byte(c.Alignment), &align); err != nil {
		return fmt.Errorf("alignment: %w", err)
	}
	tokens := make([]string, len(align))
	for i, a := range align {
		tokens[i] = a.Word
	}

	res := projection.NewProjector(projection.WithLogger(logging.GetLogger())).Project(projection.Input{
		Target:       c.Target,
		TargetTokens: tokens,
		Source:       source.Text,
		Alignment:    align,
		SourceTagged: source.Words,
	})
	fmt.Fprintln(stdout, res.Render())
	if c.Stats {
		s := res.Stats
		fmt.Fprintf(stdout, "chars=%d unmapped=%d unaligned_tokens=%d untagged=%d dropped_alignment=%d\n",
			s.Chars, s.UnmappedChars, s.UnalignedTokens, s.UntaggedChars, s.DroppedAlignment)
	}
	return nil
}
