package service

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
)

func htmlSource(title, url string) domain.Source {
	return domain.Source{Title: title, URL: url, Type: domain.SourceTypeHTML}
}

// DefaultSources is the knowledge base ingested when no sources file is configured.
var DefaultSources = []domain.Source{
	// Measles, mumps, rubella
	htmlSource("CDC Pink Book Chapter 13: Measles", "https://www.cdc.gov/pinkbook/hcp/table-of-contents/chapter-13-measles.html"),
	htmlSource("CDC Pink Book Chapter 15: Mumps", "https://www.cdc.gov/pinkbook/hcp/table-of-contents/chapter-15-mumps.html"),
	htmlSource("CDC Pink Book Chapter 20: Rubella", "https://www.cdc.gov/pinkbook/hcp/table-of-contents/chapter-20-rubella.html"),
	htmlSource("CDC Clinical Overview of Measles", "https://www.cdc.gov/measles/hcp/clinical-overview/index.html"),
	htmlSource("CDC Measles Infection Control for Healthcare Personnel", "https://www.cdc.gov/infection-control/hcp/healthcare-personnel-epidemiology-control/measles.html"),
	htmlSource("CDC Measles Vaccination Guidance", "https://www.cdc.gov/measles/hcp/vaccine-considerations/index.html"),
	htmlSource("CDC Mumps Clinical Overview", "https://www.cdc.gov/mumps/hcp/clinical-overview/index.html"),
	htmlSource("CDC Rubella Clinical Overview", "https://www.cdc.gov/rubella/hcp/clinical-overview/index.html"),

	// Pertussis
	htmlSource("CDC Pink Book Chapter 16: Pertussis", "https://www.cdc.gov/pinkbook/hcp/table-of-contents/chapter-16-pertussis.html"),
	htmlSource("CDC Pertussis Clinical Overview", "https://www.cdc.gov/pertussis/hcp/clinical-overview/index.html"),
	htmlSource("CDC Pertussis Vaccination Guidance", "https://www.cdc.gov/pertussis/vaccines/index.html"),

	// Influenza
	htmlSource("CDC Influenza Signs and Symptoms", "https://www.cdc.gov/flu/signs-symptoms/index.html"),
	htmlSource("CDC Influenza Clinical Signs for HCP", "https://www.cdc.gov/flu/hcp/clinical-signs/index.html"),
	htmlSource("CDC Influenza Antiviral Medications Summary for Clinicians", "https://www.cdc.gov/flu/hcp/antivirals/summary-clinicians.html"),
	htmlSource("CDC Influenza Antiviral Medications Overview", "https://www.cdc.gov/flu/hcp/antivirals/index.html"),
	htmlSource("CDC Influenza Testing Guidance for Clinicians", "https://www.cdc.gov/flu/hcp/testing-methods/index.html"),
	htmlSource("CDC Influenza Testing Guidance for Clinicians (Outpatient)", "https://www.cdc.gov/flu/hcp/clinical-guidance/testing-guidance-for-clinicians.html"),
	htmlSource("CDC Influenza Vaccine Recommendations for HCP", "https://www.cdc.gov/flu/hcp/vax-summary/flu-vaccine-recommendation.html"),
	htmlSource("CDC Influenza ACIP Vaccine Recommendations", "https://www.cdc.gov/flu/hcp/acip/index.html"),
	htmlSource("CDC Influenza Infection Control in Healthcare Settings", "https://www.cdc.gov/flu/hcp/infection-control/healthcare-settings.html"),
	htmlSource("CDC Influenza Clinical Guidance Overview for HCP", "https://www.cdc.gov/flu/hcp/clinical-guidance/index.html"),

	// COVID-19
	htmlSource("CDC COVID-19 Clinical Care Overview", "https://www.cdc.gov/covid/hcp/clinical-care/index.html"),
	htmlSource("CDC COVID-19 Overview and Infection Prevention", "https://www.cdc.gov/covid/prevention/index.html"),

	// Immunization schedules
	htmlSource("CDC Child and Adolescent Immunization Schedule 2025", "https://www.cdc.gov/vaccines/hcp/imz-schedules/child-adolescent.html"),
	htmlSource("CDC Adult Immunization Schedule 2025", "https://www.cdc.gov/vaccines/hcp/imz-schedules/adult.html"),

	// Surveillance
	htmlSource("CDC Measles Cases and Outbreaks 2025", "https://www.cdc.gov/measles/data-research/index.html"),
	htmlSource("CDC FluView Weekly Influenza Surveillance", "https://www.cdc.gov/fluview/index.html"),
}

type sourcesFile struct {
	Sources []domain.Source `yaml:"sources"`
}

// LoadSources returns DefaultSources when path is empty, otherwise the
// sources listed in the YAML file at path. Entries without a type are html.
func LoadSources(path string) ([]domain.Source, error) {
	if path == "" {
		out := make([]domain.Source, len(DefaultSources))
		copy(out, DefaultSources)
		return out, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var f sourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}
	if len(f.Sources) == 0 {
		return nil, fmt.Errorf("sources file %s lists no sources", path)
	}

	for i, s := range f.Sources {
		if s.Title == "" || s.URL == "" {
			return nil, fmt.Errorf("source %d: title and url are required", i+1)
		}
		switch s.Type {
		case "":
			f.Sources[i].Type = domain.SourceTypeHTML
		case domain.SourceTypeHTML, domain.SourceTypePDF:
		default:
			return nil, fmt.Errorf("source %d: unknown type %q", i+1, s.Type)
		}
	}
	return f.Sources, nil
}
