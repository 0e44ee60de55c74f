package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// batch is a collection request on disk. It has the shape of the analyze
// request body, so a JSON request file loads too.
//
//	challenge_info: {challenge_id: round_1b_002, test_case_name: travel}
//	persona: {role: Travel Planner}
//	job_to_be_done: {task: Plan a 4-day trip}
//	documents:
//	  - filename: south_of_france.pdf
type batch struct {
	ChallengeInfo struct {
		ChallengeID  string `yaml:"challenge_id"`
		TestCaseName string `yaml:"test_case_name"`
	} `yaml:"challenge_info"`
	Documents []struct {
		Filename string `yaml:"filename"`
		Title    string `yaml:"title"`
	} `yaml:"documents"`
	Persona struct {
		Role string `yaml:"role"`
	} `yaml:"persona"`
	JobToBeDone struct {
		Task string `yaml:"task"`
	} `yaml:"job_to_be_done"`
}

// loadBatch reads path and returns it with document filenames resolved
// against the batch file's directory.
func loadBatch(path string) (*batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	var b batch
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse batch %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i, d := range b.Documents {
		if d.Filename == "" {
			return nil, fmt.Errorf("parse batch %s: document %d has no filename", path, i)
		}
		if !filepath.IsAbs(d.Filename) {
			b.Documents[i].Filename = filepath.Join(dir, d.Filename)
		}
	}
	return &b, nil
}

func (b *batch) paths() []string {
	out := make([]string, len(b.Documents))
	for i, d := range b.Documents {
		out[i] = d.Filename
	}
	return out
}
