package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/emeltv/emel/color"
	"github.com/emeltv/emel/config"
	"github.com/emeltv/emel/filesystem"
	"github.com/emeltv/emel/icon"
	"github.com/emeltv/emel/style"
	"github.com/emeltv/emel/where"
	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// lookupField returns the registered field for key, suggesting the closest key when unknown.
func lookupField(key string) (config.Field, error) {
	if field, ok := config.Default[key]; ok {
		return field, nil
	}

	closest := lo.MinBy(lo.Keys(config.Default), func(a, b string) bool {
		return levenshtein.Distance(key, a) < levenshtein.Distance(key, b)
	})
	return config.Field{}, fmt.Errorf(
		"unknown key %s, did you mean %s?",
		style.Fg(color.Red)(key),
		style.Fg(color.Yellow)(closest),
	)
}

// keyFrom takes the key from the first argument, falling back to --key.
func keyFrom(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if k, _ := cmd.Flags().GetString("key"); k != "" {
		return k, nil
	}
	return "", errors.New("key is required as an argument or --key flag")
}

// parseValue converts raw into the type of the field's default.
func parseValue(field config.Field, raw string) (any, error) {
	switch field.Value.(type) {
	case int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s expects an integer, got %q", field.Key, raw)
		}
		return n, nil
	case bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s expects a boolean, got %q", field.Key, raw)
		}
		return b, nil
	default:
		return raw, nil
	}
}

// saveConfig writes the in-memory settings, creating the file on first use.
func saveConfig() error {
	err := viper.WriteConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return viper.SafeWriteConfig()
	}
	return err
}

func printDone(cmd *cobra.Command, format string, args ...any) {
	cmd.Printf("%s %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), fmt.Sprintf(format, args...))
}

func completionConfigKeys(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return lo.Keys(config.Default), cobra.ShellCompDirectiveNoFileComp
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change player settings",
}

var configInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Describe settings with their current and default values",
	Run: func(cmd *cobra.Command, args []string) {
		fields := lo.Values(config.Default)

		if keys := lo.Must(cmd.Flags().GetStringSlice("key")); len(keys) > 0 {
			fields = lo.Map(keys, func(k string, _ int) config.Field {
				field, err := lookupField(k)
				handleErr(err)
				return field
			})
		}

		sort.Slice(fields, func(i, j int) bool {
			return fields[i].Key < fields[j].Key
		})

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(fields))
			return
		}

		for i := range fields {
			if i > 0 {
				cmd.Println()
			}
			cmd.Println(fields[i].Pretty())
		}
	},
}

var configGetCmd = &cobra.Command{
	Use:               "get [key]",
	Short:             "Print the current value of a setting",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		key, err := keyFrom(cmd, args)
		handleErr(err)
		_, err = lookupField(key)
		handleErr(err)

		cmd.Println(viper.Get(key))
	},
}

var configSetCmd = &cobra.Command{
	Use:               "set [key] [value]",
	Short:             "Change a setting and save it",
	Example:           "  emel config set display.width 1280\n  emel config set --key stream.url --value https://example.com/live/index.m3u8",
	Args:              cobra.MaximumNArgs(2),
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		key, err := keyFrom(cmd, args)
		handleErr(err)
		field, err := lookupField(key)
		handleErr(err)

		raw := lo.Must(cmd.Flags().GetString("value"))
		if len(args) == 2 {
			raw = args[1]
		} else if !cmd.Flags().Changed("value") {
			handleErr(errors.New("value is required as an argument or --value flag"))
		}

		value, err := parseValue(field, raw)
		handleErr(err)

		viper.Set(key, value)
		handleErr(saveConfig())
		printDone(cmd, "set %s to %s", style.Fg(color.Purple)(key), style.Fg(color.Yellow)(fmt.Sprint(value)))
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore a setting, or all of them, to the default",
	PreRun: func(cmd *cobra.Command, args []string) {
		if !cmd.Flags().Changed("key") && !cmd.Flags().Changed("all") {
			handleErr(errors.New("either --key or --all must be set"))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("all")) {
			for key, field := range config.Default {
				viper.Set(key, field.Value)
			}
			handleErr(saveConfig())
			printDone(cmd, "reset all settings")
			return
		}

		key, err := keyFrom(cmd, nil)
		handleErr(err)
		field, err := lookupField(key)
		handleErr(err)

		viper.Set(key, field.Value)
		handleErr(saveConfig())
		printDone(cmd, "reset %s to %s", style.Fg(color.Purple)(key), style.Fg(color.Yellow)(fmt.Sprint(field.Value)))
	},
}

var configWriteCmd = &cobra.Command{
	Use:   "write",
	Short: "Write the current settings to the config file",
	Run: func(cmd *cobra.Command, args []string) {
		path := where.ConfigFile()

		if lo.Must(cmd.Flags().GetBool("force")) {
			handleErr(filesystem.RemoveIfExists(path))
		}

		handleErr(viper.SafeWriteConfig())
		printDone(cmd, "wrote config to %s", path)
	},
}

var configDeleteCmd = &cobra.Command{
	Use:     "delete",
	Short:   "Delete the config file",
	Aliases: []string{"remove"},
	Run: func(cmd *cobra.Command, args []string) {
		path := where.ConfigFile()

		if !lo.Must(cmd.Flags().GetBool("yes")) {
			var confirmed bool
			handleErr(survey.AskOne(&survey.Confirm{
				Message: fmt.Sprintf("Delete %s?", path),
			}, &confirmed))

			if !confirmed {
				return
			}
		}

		handleErr(filesystem.API().Remove(path))
		printDone(cmd, "deleted %s", path)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInfoCmd, configGetCmd, configSetCmd, configResetCmd, configWriteCmd, configDeleteCmd)

	configInfoCmd.Flags().StringSliceP("key", "k", nil, "Only describe these keys")
	configInfoCmd.Flags().BoolP("json", "j", false, "Print as JSON")

	configGetCmd.Flags().StringP("key", "k", "", "Key to print")

	configSetCmd.Flags().StringP("key", "k", "", "Key to change")
	configSetCmd.Flags().StringP("value", "v", "", "New value")

	configResetCmd.Flags().StringP("key", "k", "", "Key to restore")
	configResetCmd.Flags().BoolP("all", "a", false, "Restore every setting")
	configResetCmd.MarkFlagsMutuallyExclusive("key", "all")

	configWriteCmd.Flags().BoolP("force", "f", false, "Overwrite an existing config file")

	configDeleteCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	for _, c := range []*cobra.Command{configInfoCmd, configGetCmd, configSetCmd, configResetCmd} {
		_ = c.RegisterFlagCompletionFunc("key", completionConfigKeys)
	}
}
