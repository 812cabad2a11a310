package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/dstckit/core/bleu"
	"github.com/FocuswithJustin/dstckit/internal/logging"
)

// BleuCmd scores every test system of an mteval file against the
// references of another.
type BleuCmd struct {
	Test         string `arg:"" help:"Test set (mteval XML, or one sentence per line with --raw); - reads stdin"`
	Reference    string `arg:"" help:"Reference set, in the same format as the test set" type:"existingfile"`
	Raw          bool   `short:"r" help:"Read both files as one sentence per line"`
	PreserveCase bool   `short:"c" name:"preserve-case" help:"Do not lower-case before counting n-grams"`
	Order        int    `default:"4" help:"Maximum n-gram order"`
	Sentences    bool   `help:"Also print the BLEU score of every sentence"`
}

func (c *BleuCmd) Run(g *Globals) error {
	e, err := g.load()
	if err != nil {
		return err
	}
	return e.finish(c.run())
}

func (c *BleuCmd) run() error {
	corpus := bleu.NewCorpus(logging.GetLogger())
	testIDs, err := c.read(corpus, c.Test, "testsys")
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Test systems: %s\n", strings.Join(testIDs, ", "))
	refIDs, err := c.read(corpus, c.Reference, "refsys")
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Reference systems: %s\n", strings.Join(refIDs, ", "))

	scorer := bleu.Scorer{Order: c.Order, PreserveCase: c.PreserveCase}
	for _, id := range testIDs {
		total, sentences := corpus.Score(scorer, id, refIDs)
		fmt.Fprintf(stdout, "BLEU score: %s\n", strconv.FormatFloat(total, 'f', -1, 64))
		if !c.Sentences {
			continue
		}
		for i, orders := range sentences {
			parts := make([]string, len(orders))
			for j, v := range orders {
				parts[j] = strconv.FormatFloat(v, 'f', 4, 64)
			}
			fmt.Fprintf(stdout, "%s %d %s\n", id, i+1, strings.Join(parts, " "))
		}
	}
	return nil
}

// read adds the sets of path to corpus and returns their system ids.
func (c *BleuCmd) read(corpus *bleu.Corpus, path, sysID string) ([]string, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	if c.Raw {
		set, err := bleu.ReadRaw(r, "whatever", sysID)
		if err != nil {
			return nil, err
		}
		return corpus.Add(set), nil
	}
	sets, err := bleu.ReadSets(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var ids []string
	for _, set := range sets {
		ids = append(ids, corpus.Add(set)...)
	}
	return ids, nil
}
