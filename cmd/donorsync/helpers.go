package main

import (
	"github.com/Veraticus/donor-sync/internal/activity"
	"github.com/Veraticus/donor-sync/internal/anabix"
	"github.com/Veraticus/donor-sync/internal/config"
	"github.com/Veraticus/donor-sync/internal/darujme"
	"github.com/Veraticus/donor-sync/internal/engine"
	"github.com/Veraticus/donor-sync/internal/provision"
	"github.com/Veraticus/donor-sync/internal/snapshot"
)

func newStore(cfg *config.Config) *snapshot.Store {
	return snapshot.NewStore(cfg.Snapshot.PledgesPath, cfg.Snapshot.ProjectsPath)
}

func newDarujmeClient(cfg *config.Config) (*darujme.Client, error) {
	return darujme.NewClient(darujme.Config{
		OrgID:     cfg.Darujme.OrgID,
		APIID:     cfg.Darujme.APIID,
		APISecret: cfg.Darujme.APISecret,
		BaseURL:   cfg.Darujme.BaseURL,
		Timeout:   cfg.Darujme.Timeout,
	})
}

func newAnabixClient(cfg *config.Config) (*anabix.Client, error) {
	return anabix.NewClient(anabix.Config{
		URL:               cfg.Anabix.URL,
		Username:          cfg.Anabix.Username,
		Token:             cfg.Anabix.Token,
		Timeout:           cfg.Anabix.Timeout,
		RequestsPerSecond: cfg.Anabix.RequestsPerSecond,
	})
}

// engineConfig maps the sync section of the configuration onto the engine.
func engineConfig(cfg *config.Config) engine.Config {
	s := cfg.Sync
	return engine.Config{
		Location:        s.Location(),
		ListID:          s.ListID,
		CheckDuplicates: s.CheckDuplicates,
		Contacts:        provision.DefaultOptions(),
		Codes: activity.Codes{
			SupportType: s.SupportTypeCode,
			Branch:      s.BranchCode,
			DonorType:   s.DonorTypeCode,
		},
		CustomFields: activity.CustomFieldIDs{
			AmountGross: s.CustomFields.AmountGross,
			AmountNet:   s.CustomFields.AmountNet,
			SupportType: s.CustomFields.SupportType,
			Branch:      s.CustomFields.Branch,
			DonorType:   s.CustomFields.DonorType,
		},
	}
}
