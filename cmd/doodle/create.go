package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/causal/go-doodle/internal/config"
	"github.com/causal/go-doodle/polls"
)

// pollSpecFile is the YAML shape of a poll definition file.
type pollSpecFile struct {
	Title          string              `yaml:"title"`
	Type           string              `yaml:"type"`
	OrganizerName  string              `yaml:"organizerName"`
	OrganizerEmail string              `yaml:"organizerEmail"`
	Location       string              `yaml:"location"`
	Description    string              `yaml:"description"`
	Options        []string            `yaml:"options"`
	Dates          map[string][]string `yaml:"dates"`
	IfNeedBe       bool                `yaml:"ifNeedBe"`
	Hidden         bool                `yaml:"hidden"`
	MultiDay       bool                `yaml:"multiDay"`
	ByInvitation   bool                `yaml:"byInvitation"`
	AskAddress     bool                `yaml:"askAddress"`
	AskEmail       bool                `yaml:"askEmail"`
	AskPhone       bool                `yaml:"askPhone"`
	Country        string              `yaml:"country"`
}

func newCreateCmd(c config.Config) *cobra.Command {
	var specPath string

	cmd := &cobra.Command{
		Use:   "create -f poll.yaml",
		Short: "Create a poll from a YAML definition file",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := loadPollSpec(specPath)
			if err != nil {
				return err
			}

			client, err := newClient(c)
			if err != nil {
				return err
			}

			poll, err := client.CreatePoll(cmd.Context(), spec)
			if err != nil {
				return err
			}

			fmt.Printf("Created poll %q\n", poll.Title)
			fmt.Printf("  ID:        %s\n", poll.ID)
			fmt.Printf("  Admin key: %s\n", poll.AdminKey)
			fmt.Printf("  URL:       %s\n", poll.PublicURL())
			return nil
		},
	}

	cmd.Flags().StringVarP(&specPath, "file", "f", "", "path to the poll definition file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func loadPollSpec(path string) (polls.Spec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return polls.Spec{}, errors.Wrap(err, "[loadPollSpec] reading definition file")
	}

	var file pollSpecFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return polls.Spec{}, errors.Wrap(err, "[loadPollSpec] parsing definition file")
	}

	return polls.Spec{
		Title:          file.Title,
		Type:           polls.Type(file.Type),
		OrganizerName:  file.OrganizerName,
		OrganizerEmail: file.OrganizerEmail,
		Location:       file.Location,
		Description:    file.Description,
		TextOptions:    file.Options,
		Dates:          file.Dates,
		IfNeedBe:       file.IfNeedBe,
		Hidden:         file.Hidden,
		MultiDay:       file.MultiDay,
		ByInvitation:   file.ByInvitation,
		AskAddress:     file.AskAddress,
		AskEmail:       file.AskEmail,
		AskPhone:       file.AskPhone,
		Country:        file.Country,
	}, nil
}
