package main

import (
	"context"
	"errors"
	"testing"

	"github.com/balsa-asanovic/agama/internal/installer"
	"github.com/balsa-asanovic/agama/internal/l10n"
	"github.com/balsa-asanovic/agama/internal/progress"
	"github.com/balsa-asanovic/agama/internal/software"
	"github.com/balsa-asanovic/agama/internal/storage"
)

type stubCatalog struct{}

func (stubCatalog) Languages() (map[string]l10n.Language, error) {
	return map[string]l10n.Language{
		"en_US": {Code: "en_US"},
		"de_DE": {Code: "de_DE"},
	}, nil
}

type stubSoftware struct{}

func (stubSoftware) Probe(context.Context) error   { return nil }
func (stubSoftware) Propose(context.Context) error { return nil }

func (stubSoftware) SelectProduct(_ context.Context, id string) error {
	if id != "tumbleweed" {
		return software.ErrUnknownProduct
	}
	return nil
}

func (stubSoftware) Products() []software.Product {
	return []software.Product{{ID: "tumbleweed"}}
}

func (stubSoftware) CurrentProduct() string { return "tumbleweed" }

func (stubSoftware) Install(context.Context, string, progress.Callback) error { return nil }

type stubStorage struct {
	proposal *storage.Proposal
}

func (s *stubStorage) Probe(context.Context) error        { return nil }
func (s *stubStorage) Disks() []storage.Disk              { return []storage.Disk{{Name: "sda"}} }
func (s *stubStorage) CurrentProposal() *storage.Proposal { return s.proposal }

type stubNegotiator struct {
	storage *stubStorage
}

func (n *stubNegotiator) ProposeFor(_ context.Context, diskID string) (bool, error) {
	if diskID != "sda" {
		return false, nil
	}
	n.storage.proposal = &storage.Proposal{Disk: diskID, Feasible: true}
	return true, nil
}

func probedManager(t *testing.T) *installer.Manager {
	t.Helper()

	st := &stubStorage{}
	manager := installer.New(installer.Deps{
		Languages:  stubCatalog{},
		Software:   stubSoftware{},
		Storage:    st,
		Negotiator: &stubNegotiator{storage: st},
	})
	if !manager.Probe(context.Background()) {
		t.Fatal("probe should succeed")
	}
	return manager
}

func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		languageFlag, productFlag, diskFlag = "", "", ""
	})
}

func TestApplyOverridesSetsLanguage(t *testing.T) {
	resetFlags(t)
	manager := probedManager(t)
	languageFlag = "de_DE"

	if err := applyOverrides(context.Background(), manager); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if manager.Language() != "de_DE" {
		t.Fatalf("language = %q, want de_DE", manager.Language())
	}
}

func TestApplyOverridesRejectsUnknownLanguage(t *testing.T) {
	resetFlags(t)
	manager := probedManager(t)
	languageFlag = "xx_XX"

	err := applyOverrides(context.Background(), manager)
	if !errors.Is(err, installer.ErrInvalidSelection) {
		t.Fatalf("expected ErrInvalidSelection, got %v", err)
	}
	if manager.Language() != "en_US" {
		t.Fatalf("language changed on rejected override: %q", manager.Language())
	}
}
