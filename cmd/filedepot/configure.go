package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Write a config file interactively",
	Long: `Walk through the gateway settings interactively and write them to a
YAML config file. Existing files are only overwritten after confirmation.`,
	RunE: runConfigure,
}

func init() {
	configureCmd.Flags().String("output", "config.yaml", "path of the config file to write")

	rootCmd.AddCommand(configureCmd)
}

// configFile mirrors the keys config.Load reads. Kept separate from
// config.Config so the written YAML stays minimal and ordered.
type configFile struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		Type string `yaml:"type"`
		DSN  string `yaml:"dsn"`
	} `yaml:"database"`
	Storage struct {
		Type string        `yaml:"type"`
		Path string        `yaml:"path,omitempty"`
		S3   *s3ConfigFile `yaml:"s3,omitempty"`
	} `yaml:"storage"`
	Auth struct {
		Secret string `yaml:"secret"`
	} `yaml:"auth"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func runConfigure(cmd *cobra.Command, _ []string) error {
	output, _ := cmd.Flags().GetString("output")

	if _, err := os.Stat(output); err == nil {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("File '%s' already exists. Overwrite it", output),
			IsConfirm: true,
		}
		if _, promptErr := prompt.Run(); promptErr != nil {
			fmt.Println("Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	}

	var cfg configFile

	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: "5708",
		Validate: func(input string) error {
			port, err := strconv.Atoi(input)
			if err != nil || port < 1 || port > 65535 {
				return errors.New("port must be a number between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	dbSelect := promptui.Select{
		Label: "Database backend",
		Items: []string{"sqlite", "postgres"},
	}
	_, cfg.Database.Type, err = dbSelect.Run()
	if err != nil {
		return handlePromptError(err)
	}

	dsnDefault := "filedepot.db"
	if cfg.Database.Type == "postgres" {
		dsnDefault = "postgres://localhost:5432/filedepot"
	}
	dsnPrompt := promptui.Prompt{
		Label:   "Database DSN",
		Default: dsnDefault,
	}
	cfg.Database.DSN, err = dsnPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	storageSelect := promptui.Select{
		Label: "Storage backend",
		Items: []string{"filesystem", "s3"},
	}
	_, cfg.Storage.Type, err = storageSelect.Run()
	if err != nil {
		return handlePromptError(err)
	}

	if cfg.Storage.Type == "filesystem" {
		pathPrompt := promptui.Prompt{
			Label:   "Storage directory",
			Default: "./data",
		}
		cfg.Storage.Path, err = pathPrompt.Run()
		if err != nil {
			return handlePromptError(err)
		}
	} else {
		s3cfg, s3Err := promptS3()
		if s3Err != nil {
			return s3Err
		}
		cfg.Storage.S3 = s3cfg
	}

	secretPrompt := promptui.Prompt{
		Label: "Token signing secret",
		Mask:  '*',
		Validate: func(input string) error {
			if input == "" {
				return errors.New("secret is required")
			}
			return nil
		},
	}
	cfg.Auth.Secret, err = secretPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	logSelect := promptui.Select{
		Label: "Log level",
		Items: []string{"debug", "info", "warn", "error"},
	}
	_, cfg.Log.Level, err = logSelect.Run()
	if err != nil {
		return handlePromptError(err)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.WriteFile(output, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Config written to %s\n", output)
	return nil
}

type s3ConfigFile struct {
	Endpoint        string `yaml:"endpoint,omitempty"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
}

func promptS3() (*s3ConfigFile, error) {
	var s3cfg s3ConfigFile

	endpointPrompt := promptui.Prompt{
		Label: "S3 endpoint (empty for AWS)",
	}
	endpoint, err := endpointPrompt.Run()
	if err != nil {
		return nil, handlePromptError(err)
	}
	s3cfg.Endpoint = endpoint

	regionPrompt := promptui.Prompt{
		Label:   "S3 region",
		Default: "us-east-1",
	}
	s3cfg.Region, err = regionPrompt.Run()
	if err != nil {
		return nil, handlePromptError(err)
	}

	bucketPrompt := promptui.Prompt{
		Label: "S3 bucket",
		Validate: func(input string) error {
			if input == "" {
				return errors.New("bucket is required")
			}
			return nil
		},
	}
	s3cfg.Bucket, err = bucketPrompt.Run()
	if err != nil {
		return nil, handlePromptError(err)
	}

	accessPrompt := promptui.Prompt{
		Label: "Access key id (empty for ambient credentials)",
	}
	s3cfg.AccessKeyID, err = accessPrompt.Run()
	if err != nil {
		return nil, handlePromptError(err)
	}

	if s3cfg.AccessKeyID != "" {
		secretPrompt := promptui.Prompt{
			Label: "Secret access key",
			Mask:  '*',
		}
		s3cfg.SecretAccessKey, err = secretPrompt.Run()
		if err != nil {
			return nil, handlePromptError(err)
		}
	}

	return &s3cfg, nil
}

// handlePromptError handles promptui errors.
func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		fmt.Println("\nCancelled.")
		os.Exit(0)
	}
	if errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
