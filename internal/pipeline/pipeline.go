// Package pipeline runs one statement through decryption, identification,
// dispatch and extraction.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/insightdelivered/statement-ledger/internal/extractor"
	"github.com/insightdelivered/statement-ledger/internal/identify"
	"github.com/insightdelivered/statement-ledger/internal/logger"
	"github.com/insightdelivered/statement-ledger/internal/models"
	"github.com/insightdelivered/statement-ledger/internal/parser"
)

// Pipeline converts statements. It holds only read-only configuration and
// may be shared by concurrent uploads.
type Pipeline struct {
	identifier *identify.Identifier
	poppler    *extractor.Poppler
	parserOpts parser.Options
}

// New builds a pipeline. poppler and ocr may be nil; scanned statements
// then cannot be identified.
func New(identifier *identify.Identifier, poppler *extractor.Poppler, ocr extractor.OCR, resolution int) *Pipeline {
	return &Pipeline{
		identifier: identifier,
		poppler:    poppler,
		parserOpts: parser.Options{OCR: ocr, Resolution: resolution},
	}
}

// Result is a converted statement and how its bank was recognised.
type Result struct {
	Statement *models.Statement
	Method    identify.Method
}

// Run decrypts raw and converts it.
func (p *Pipeline) Run(ctx context.Context, raw models.RawDocument) (res *Result, err error) {
	log := logger.FromContext(ctx)
	log.Info().Object("document", raw).Msg("converting statement")

	doc, err := extractor.Open(raw, p.poppler)
	if err != nil {
		log.Warn().Err(err).Msg("could not open statement")
		return nil, err
	}
	res, err = p.RunDocument(ctx, doc)
	if err != nil && raw.BankHint != "" && models.KindOf(err) == models.KindUnidentifiedBank {
		err = fmt.Errorf("%w (declared bank: %s)", err, raw.BankHint)
	}
	return res, err
}

// RunDocument converts an already-open document. Any failure outside the
// error taxonomy, including a panic in a parser, is reported as
// models.ErrCorruptDocument.
func (p *Pipeline) RunDocument(ctx context.Context, doc extractor.Document) (res *Result, err error) {
	log := logger.FromContext(ctx)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("statement conversion crashed")
			res, err = nil, fmt.Errorf("%w: conversion crashed", models.ErrCorruptDocument)
		}
		if err != nil && ctx.Err() == nil && !models.IsKnown(err) {
			err = fmt.Errorf("%w: %v", models.ErrCorruptDocument, err)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bank, method, err := p.identifier.Identify(ctx, doc)
	if err != nil {
		log.Warn().Err(err).Int("pages", doc.NumPages()).Msg("bank not identified")
		return nil, err
	}
	log.Info().Str("bank", bank.Name).Str("method", string(method)).Msg("bank identified")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prs, err := parser.New(bank, p.parserOpts)
	if err != nil {
		log.Warn().Str("bank", bank.Name).Msg("bank not supported")
		return nil, err
	}

	stmt, err := prs.Parse(ctx, doc)
	if err != nil {
		log.Warn().Err(err).Str("bank", bank.Name).Msg("extraction failed")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Info().
		Str("bank", bank.Name).
		Str("format", stmt.Format).
		Int("transactions", len(stmt.Transactions)).
		Dur("duration", time.Since(start)).
		Msg("statement converted")

	return &Result{Statement: stmt, Method: method}, nil
}
