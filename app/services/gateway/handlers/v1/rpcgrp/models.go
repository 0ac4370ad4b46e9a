package rpcgrp

import (
	"github.com/dRAT3/rad-rpc/business/core/inspect"
	"github.com/dRAT3/rad-rpc/business/core/submit"
)

type runParams struct {
	Manifest string   `json:"manifest" validate:"required"`
	Signers  []string `json:"signers"`
}

type showParams struct {
	Address string `json:"address" validate:"required"`
}

type runResult struct {
	Packages     []string `json:"packages"`
	Components   []string `json:"components"`
	ResourceDefs []string `json:"resource_defs"`
	Outputs      []string `json:"outputs"`
}

type packageResult struct {
	Bytes int `json:"bytes"`
}

type entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type collection struct {
	ID      string  `json:"id"`
	Entries []entry `json:"entries"`
}

type asset struct {
	Key       string `json:"key"`
	Immutable string `json:"immutable"`
	Mutable   string `json:"mutable"`
}

type resource struct {
	Amount      string  `json:"amount"`
	ResourceDef string  `json:"resource_def"`
	Name        string  `json:"name,omitempty"`
	Symbol      string  `json:"symbol,omitempty"`
	Assets      []asset `json:"assets,omitempty"`
}

type snapshotResult struct {
	Package     string       `json:"package"`
	Blueprint   string       `json:"blueprint"`
	State       string       `json:"state"`
	Collections []collection `json:"collections"`
	Resources   []resource   `json:"resources"`
	InternalErr bool         `json:"internal_error"`
}

type snapshotMetadata struct {
	Package   string `json:"package"`
	Blueprint string `json:"blueprint"`
}

func toRunResult(result submit.Result) runResult {
	return runResult{
		Packages:     result.Packages,
		Components:   result.Components,
		ResourceDefs: result.ResourceDefs,
		Outputs:      result.Outputs,
	}
}

func toSnapshotResult(snap inspect.Snapshot) snapshotResult {
	collections := make([]collection, 0, len(snap.Collections))
	for _, col := range snap.Collections {
		entries := make([]entry, 0, len(col.Entries))
		for _, e := range col.Entries {
			entries = append(entries, entry{Key: e.Key, Value: e.Value})
		}
		collections = append(collections, collection{ID: col.ID, Entries: entries})
	}

	resources := make([]resource, 0, len(snap.Resources))
	for _, res := range snap.Resources {
		rsc := resource{
			Amount:      res.Amount,
			ResourceDef: res.Resource,
			Name:        res.Name,
			Symbol:      res.Symbol,
		}
		for _, a := range res.Assets {
			rsc.Assets = append(rsc.Assets, asset{Key: a.Key, Immutable: a.Immutable, Mutable: a.Mutable})
		}
		resources = append(resources, rsc)
	}

	return snapshotResult{
		Package:     snap.Package,
		Blueprint:   snap.Blueprint,
		State:       snap.State,
		Collections: collections,
		Resources:   resources,
		InternalErr: snap.InternalErr,
	}
}
