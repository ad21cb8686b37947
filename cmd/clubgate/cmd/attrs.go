package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openclub/clubgate/internal/types"
)

var attrsCmd = &cobra.Command{
	Use:   "attrs",
	Short: "Manage attribute definitions and values",
}

var attrsDefineCmd = &cobra.Command{
	Use:   "define <entity-type> <name>",
	Short: "Create an active attribute definition",
	Args:  cobra.ExactArgs(2),
	RunE:  runAttrsDefine,
}

var attrsListCmd = &cobra.Command{
	Use:   "list <entity-type>",
	Short: "List active attribute definitions",
	Args:  cobra.ExactArgs(1),
	RunE:  runAttrsList,
}

var attrsDeactivateCmd = &cobra.Command{
	Use:   "deactivate <entity-type> <name>",
	Short: "Deactivate an attribute definition (values are kept)",
	Args:  cobra.ExactArgs(2),
	RunE:  runAttrsDeactivate,
}

var attrsSetCmd = &cobra.Command{
	Use:   "set <entity-type> <entity-id> <name> <value>",
	Short: "Set a dynamic attribute value",
	Args:  cobra.ExactArgs(4),
	RunE:  runAttrsSet,
}

var attrsGetCmd = &cobra.Command{
	Use:   "get <entity-type> <entity-id> [name]",
	Short: "Show one or all stored values of an entity",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  runAttrsGet,
}

var attrsRemoveCmd = &cobra.Command{
	Use:   "remove <entity-type> <entity-id> <name>",
	Short: "Remove a stored value",
	Args:  cobra.ExactArgs(3),
	RunE:  runAttrsRemove,
}

func init() {
	rootCmd.AddCommand(attrsCmd)
	attrsCmd.AddCommand(attrsDefineCmd, attrsListCmd, attrsDeactivateCmd,
		attrsSetCmd, attrsGetCmd, attrsRemoveCmd)

	attrsDefineCmd.Flags().String("type", "text", "attribute type")
	attrsDefineCmd.Flags().String("display-name", "", "human readable label")
	attrsDefineCmd.Flags().String("description", "", "description shown in admin forms")
	attrsDefineCmd.Flags().Bool("required", false, "value is mandatory")
	attrsDefineCmd.Flags().String("default", "", "default value")
	attrsDefineCmd.Flags().Int("order", 0, "display order")
	attrsDefineCmd.Flags().StringArray("option", nil, "select option as label=value, ordered; repeatable")
	attrsDefineCmd.Flags().StringArray("rule", nil, "validation rule as name=value; repeatable")

	attrsSetCmd.Flags().String("type", "", "value type override when no definition exists")
}

func runAttrsDefine(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	typeName, _ := cmd.Flags().GetString("type")
	attrType, err := types.ParseAttributeType(typeName)
	if err != nil {
		return err
	}

	displayName, _ := cmd.Flags().GetString("display-name")
	description, _ := cmd.Flags().GetString("description")
	required, _ := cmd.Flags().GetBool("required")
	defaultValue, _ := cmd.Flags().GetString("default")
	order, _ := cmd.Flags().GetInt("order")
	rawOptions, _ := cmd.Flags().GetStringArray("option")
	rawRules, _ := cmd.Flags().GetStringArray("rule")

	options, err := parseOptions(rawOptions)
	if err != nil {
		return err
	}
	rules, err := parseRules(rawRules)
	if err != nil {
		return err
	}

	def, err := e.schema.Define(context.Background(), types.AttributeDefinition{
		EntityType:   args[0],
		Name:         args[1],
		DisplayName:  displayName,
		Type:         attrType,
		Required:     required,
		DefaultValue: defaultValue,
		Description:  description,
		Options:      options,
		Validation:   rules,
		DisplayOrder: order,
	})
	if err != nil {
		return err
	}

	fmt.Printf("defined %s.%s (%s) id=%s\n", def.EntityType, def.Name, def.Type, def.ID)
	return nil
}

func runAttrsList(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	defs, err := e.schema.ListActive(context.Background(), args[0])
	if err != nil {
		return err
	}
	for _, def := range defs {
		required := ""
		if def.Required {
			required = " required"
		}
		fmt.Printf("%-32s %-16s %s%s\n", def.Name, def.Type, def.Label(), required)
	}
	return nil
}

func runAttrsDeactivate(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.schema.Deactivate(context.Background(), args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("deactivated %s.%s\n", args[0], args[1])
	return nil
}

func runAttrsSet(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	entityID, err := parseEntityID(args[1])
	if err != nil {
		return err
	}

	ctx := context.Background()
	attrType := types.TypeText
	if typeName, _ := cmd.Flags().GetString("type"); typeName != "" {
		attrType, err = types.ParseAttributeType(typeName)
		if err != nil {
			return err
		}
	} else if def, found, err := e.schema.Get(ctx, args[0], args[2]); err != nil {
		return err
	} else if found {
		attrType = def.Type
	}

	if err := e.store.Set(ctx, args[0], entityID, args[2], args[3], attrType); err != nil {
		return err
	}
	fmt.Printf("set %s[%d].%s\n", args[0], entityID, args[2])
	return nil
}

func runAttrsGet(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	entityID, err := parseEntityID(args[1])
	if err != nil {
		return err
	}
	ctx := context.Background()

	if len(args) == 3 {
		attr, found, err := e.store.Get(ctx, args[0], entityID, args[2])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%s[%d].%s is not set", args[0], entityID, args[2])
		}
		fmt.Printf("%s (%s) = %s\n", attr.Name, attr.Type, attr.Value)
		return nil
	}

	all, err := e.store.GetAll(ctx, args[0], entityID)
	if err != nil {
		return err
	}
	for _, attr := range all {
		fmt.Printf("%-32s (%s) = %s\n", attr.Name, attr.Type, attr.Value)
	}
	return nil
}

func runAttrsRemove(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	entityID, err := parseEntityID(args[1])
	if err != nil {
		return err
	}

	removed, err := e.store.Remove(context.Background(), args[0], entityID, args[2])
	if err != nil {
		return err
	}
	if !removed {
		fmt.Printf("%s[%d].%s was not set\n", args[0], entityID, args[2])
		return nil
	}
	fmt.Printf("removed %s[%d].%s\n", args[0], entityID, args[2])
	return nil
}

func parseEntityID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid entity id %q", s)
	}
	return id, nil
}

func parseOptions(raw []string) ([]types.Option, error) {
	options := make([]types.Option, 0, len(raw))
	for _, entry := range raw {
		label, value, found := strings.Cut(entry, "=")
		if !found {
			return nil, fmt.Errorf("option %q must be label=value", entry)
		}
		options = append(options, types.Option{Label: label, Value: value})
	}
	return options, nil
}

func parseRules(raw []string) (types.ValidationRules, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	rules := make(types.ValidationRules, len(raw))
	for _, entry := range raw {
		name, value, found := strings.Cut(entry, "=")
		if !found {
			return nil, fmt.Errorf("rule %q must be name=value", entry)
		}
		rules[name] = value
	}
	return rules, nil
}
