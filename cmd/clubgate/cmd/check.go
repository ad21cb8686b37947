package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/openclub/clubgate/internal/rules"
	"github.com/openclub/clubgate/internal/types"
)

var checkCmd = &cobra.Command{
	Use:   "check <event-id>",
	Short: "Evaluate a member against an event's active conditions",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <entity-type> <attribute>",
	Short: "Preview how an attribute resolves for an entity instance",
	Args:  cobra.ExactArgs(2),
	RunE:  runResolve,
}

var conditionsCmd = &cobra.Command{
	Use:   "conditions",
	Short: "Manage event registration conditions",
}

var conditionsAddCmd = &cobra.Command{
	Use:   "add <event-id> <entity-class> <attribute> <operator> [value]",
	Short: "Attach a condition to an event",
	Args:  cobra.RangeArgs(4, 5),
	RunE:  runConditionsAdd,
}

var conditionsListCmd = &cobra.Command{
	Use:   "list <event-id>",
	Short: "List an event's conditions in evaluation order",
	Args:  cobra.ExactArgs(1),
	RunE:  runConditionsList,
}

var conditionsEnableCmd = &cobra.Command{
	Use:   "enable <condition-id>",
	Short: "Re-enable a disabled condition",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setConditionActive(args[0], true) },
}

var conditionsDisableCmd = &cobra.Command{
	Use:   "disable <condition-id>",
	Short: "Disable a condition without deleting it",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setConditionActive(args[0], false) },
}

var conditionsOperatorsCmd = &cobra.Command{
	Use:   "operators [attribute-type]",
	Short: "List condition operators, optionally filtered by attribute type",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConditionsOperators,
}

func init() {
	rootCmd.AddCommand(checkCmd, resolveCmd, conditionsCmd)
	conditionsCmd.AddCommand(conditionsAddCmd, conditionsListCmd,
		conditionsEnableCmd, conditionsDisableCmd, conditionsOperatorsCmd)

	checkCmd.Flags().String("member-file", "", "JSON file with the member record (required)")
	checkCmd.Flags().String("event-file", "", "JSON file with the event record")
	resolveCmd.Flags().String("file", "", "JSON file with the entity record (required)")
	conditionsAddCmd.Flags().String("message", "", "violation message override")
}

func runCheck(cmd *cobra.Command, args []string) error {
	eventID, err := parseEntityID(args[0])
	if err != nil {
		return fmt.Errorf("invalid event id %q", args[0])
	}

	memberFile, _ := cmd.Flags().GetString("member-file")
	if memberFile == "" {
		return fmt.Errorf("--member-file required")
	}
	var member types.Member
	if err := readJSONFile(memberFile, &member); err != nil {
		return err
	}

	event := types.Event{ID: eventID}
	if eventFile, _ := cmd.Flags().GetString("event-file"); eventFile != "" {
		if err := readJSONFile(eventFile, &event); err != nil {
			return err
		}
		event.ID = eventID
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	violations, err := e.elig.Violations(context.Background(), &member, &event)
	if err != nil {
		return err
	}

	if len(violations) == 0 {
		fmt.Printf("%s is eligible for event %d\n", member.FullName(), eventID)
		return nil
	}
	fmt.Printf("%s is not eligible for event %d:\n", member.FullName(), eventID)
	for _, v := range violations {
		fmt.Printf("  - %s\n", v.Message)
	}
	return nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	if file == "" {
		return fmt.Errorf("--file required")
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	entity, err := decodeEntity(args[0], file)
	if err != nil {
		return err
	}

	resolved, err := e.resolver.Resolve(context.Background(), args[0], entity, args[1])
	if err != nil {
		return err
	}
	if resolved.Absent() {
		fmt.Printf("%s.%s is absent\n", args[0], args[1])
		return nil
	}
	fmt.Printf("%s.%s = %v (%s, %s)\n", args[0], args[1], resolved.Value, resolved.Type, resolved.Source)
	return nil
}

func runConditionsAdd(cmd *cobra.Command, args []string) error {
	eventID, err := parseEntityID(args[0])
	if err != nil {
		return fmt.Errorf("invalid event id %q", args[0])
	}
	message, _ := cmd.Flags().GetString("message")

	value := ""
	if len(args) == 5 {
		value = args[4]
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	cond, err := e.conditions.Create(context.Background(), types.Condition{
		EventID:     eventID,
		EntityClass: args[1],
		Attribute:   args[2],
		Operator:    args[3],
		Value:       value,
		Message:     message,
	})
	if err != nil {
		return err
	}

	fmt.Printf("added condition %s at position %d\n", cond.ID, cond.Position)
	return nil
}

func runConditionsList(cmd *cobra.Command, args []string) error {
	eventID, err := parseEntityID(args[0])
	if err != nil {
		return fmt.Errorf("invalid event id %q", args[0])
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	conds, err := e.conditions.ListForEvent(context.Background(), eventID)
	if err != nil {
		return err
	}
	for _, c := range conds {
		state := "active"
		if !c.Active {
			state = "disabled"
		}
		fmt.Printf("%3d %-36s %-8s %s.%s %s %q\n",
			c.Position, c.ID, state, c.EntityClass, c.Attribute, c.Operator, c.Value)
	}
	return nil
}

func setConditionActive(id string, active bool) error {
	condID, err := types.ParseConditionID(id)
	if err != nil {
		return err
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.conditions.SetActive(context.Background(), condID, active); err != nil {
		return err
	}
	state := "enabled"
	if !active {
		state = "disabled"
	}
	fmt.Printf("%s condition %s\n", state, condID)
	return nil
}

func runConditionsOperators(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		attrType, err := types.ParseAttributeType(args[0])
		if err != nil {
			return err
		}
		for _, op := range rules.OperatorsForType(attrType) {
			fmt.Printf("%-24s %s\n", op.Token(), op.Label())
		}
		return nil
	}

	all := rules.ListAvailableOperators()
	tokens := make([]string, 0, len(all))
	for token := range all {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	for _, token := range tokens {
		fmt.Printf("%-24s %s\n", token, all[token])
	}
	return nil
}

// decodeEntity turns a JSON file into the concrete entity the resolver's
// descriptors expect.
func decodeEntity(entityType, file string) (any, error) {
	switch entityType {
	case types.EntityMember:
		var m types.Member
		if err := readJSONFile(file, &m); err != nil {
			return nil, err
		}
		return &m, nil
	case types.EntityEvent:
		var ev types.Event
		if err := readJSONFile(file, &ev); err != nil {
			return nil, err
		}
		return &ev, nil
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownEntityType, entityType)
	}
}

func readJSONFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
