// Package semtag reads and writes the inline semantic-tag markup used by the
// DSTC5 corpus, e.g.
//
//	<PLACE cat="NAME">Sentosa</PLACE> is nice
//
// A Parser turns a tagged utterance into aligned character, word and
// annotation sequences. Spans never nest; every span carries a BIO position
// so the first character (or word) of a span is B and the rest are I.
//
// Words take the annotation of their first character. Re-segmenting a parse
// against another tokenization (Tokenize, Reconcile) keeps that rule, so a
// word that starts outside a span is untagged even when it runs into one.
//
// Render is the inverse of LabeledChars: it writes one span per run of equal
// labels and escapes text so the output parses back to the same characters.
package semtag
