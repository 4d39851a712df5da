// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/refcheck/pkg/types"
)

func init() {
	viper.SetDefault("crossref.timeout", 30*time.Second)
	viper.SetDefault("crossref.user_agent", "refcheck/"+version)
	viper.SetDefault("pubmed.timeout", 30*time.Second)
	viper.SetDefault("pubmed.user_agent", "refcheck/"+version)
	viper.SetDefault("diagnosis.model", "qwen-turbo")
	viper.SetDefault("diagnosis.timeout", 60*time.Second)
	viper.SetDefault("pipeline.request_delay", time.Second)
	viper.SetDefault("pipeline.cooldown_every", 100)
	viper.SetDefault("pipeline.cooldown_period", 60*time.Second)
	viper.SetDefault("admission.capacity", 3)
	viper.SetDefault("admission.stale_after", 3*time.Hour)
	viper.SetDefault("store.db_path", "refcheck.db")
}

// loadConfig assembles the run configuration from viper (config file +
// REFCHECK_ environment) with API credentials falling back to the
// secrets directory.
func loadConfig() types.CheckConfig {
	cfg := types.CheckConfig{
		Crossref: types.CrossrefConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("crossref.timeout"),
				UserAgent: viper.GetString("crossref.user_agent"),
			},
			Email: secretDefault("crossref-email", viper.GetString("crossref.email")),
		},
		PubMed: types.PubMedConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("pubmed.timeout"),
				UserAgent: viper.GetString("pubmed.user_agent"),
			},
			APIKey: secretDefault("ncbi-api-key", viper.GetString("pubmed.api_key")),
		},
		Diagnosis: types.DiagnosisConfig{
			AIConfig: types.AIConfig{
				Model:  viper.GetString("diagnosis.model"),
				APIKey: secretDefault("dashscope-api-key", viper.GetString("diagnosis.api_key")),
			},
			HTTPConfig: types.HTTPConfig{
				Timeout: viper.GetDuration("diagnosis.timeout"),
			},
		},
		Pipeline: types.PipelineConfig{
			RequestDelay:   viper.GetDuration("pipeline.request_delay"),
			CooldownEvery:  viper.GetInt("pipeline.cooldown_every"),
			CooldownPeriod: viper.GetDuration("pipeline.cooldown_period"),
		},
		Admission: types.AdmissionConfig{
			Capacity:   viper.GetInt("admission.capacity"),
			StaleAfter: viper.GetDuration("admission.stale_after"),
		},
		Store: types.StoreConfig{
			DBPath: viper.GetString("store.db_path"),
		},
	}
	return cfg
}
