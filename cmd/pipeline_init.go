package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/dealhawk/cardmatch/internal/confusion"
	"github.com/dealhawk/cardmatch/internal/extract"
	"github.com/dealhawk/cardmatch/internal/junk"
	"github.com/dealhawk/cardmatch/internal/match"
	"github.com/dealhawk/cardmatch/internal/score"
	"github.com/dealhawk/cardmatch/internal/store"
)

// matchEnv bundles the wired matching pipeline and its store for one
// command invocation.
type matchEnv struct {
	Store   store.Store
	Matcher *match.Matcher
	Weights *score.Holder
}

func (e *matchEnv) Close() {
	_ = e.Store.Close()
}

// initMatchEnv wires the full pipeline: embedded rule tables, learned
// junk signals, confusion memory, the active weight set and the matcher.
func initMatchEnv(ctx context.Context) (*matchEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}

	rules, err := junk.LoadRules()
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "load junk rules")
	}
	tables, err := extract.LoadTables()
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "load extraction tables")
	}

	refresher := junk.NewRefresher(st, time.Duration(cfg.Junk.RefreshTTLMins)*time.Minute)
	classifier := junk.NewClassifier(rules, refresher, cfg.Junk.Threshold)
	extractor := extract.New(classifier, tables)

	retriever := match.NewRetriever(st, cfg.Matcher)
	biaser := confusion.NewCache(st, time.Duration(cfg.Confusion.RefreshTTLMins)*time.Minute)

	active, err := st.ActiveWeightSet(ctx)
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "load active weight set")
	}
	holder := score.NewHolder(active)

	return &matchEnv{
		Store:   st,
		Matcher: match.NewMatcher(extractor, retriever, biaser, holder, cfg.Matcher),
		Weights: holder,
	}, nil
}
