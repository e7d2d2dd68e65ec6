package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lazypower/thringlet/internal/companion"
)

// --- create command ---

var (
	createID          string
	createName        string
	createRarity      string
	createOwner       string
	createCore        string
	createPersonality string
	createLore        string
	createAbilities   []string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new companion",
	Long: "Create a new companion. Abilities are given as name:type:description and may be repeated:\n\n" +
		"  thringlet create --name Nyx --rarity epic --ability \"Patch:support:mends a sector\"",
	Args: cobra.NoArgs,
	RunE: runCreate,
}

// parseAbility parses name:type:description. Only the name is required.
func parseAbility(s string) (companion.Ability, error) {
	parts := strings.SplitN(s, ":", 3)
	a := companion.Ability{Name: strings.TrimSpace(parts[0])}
	if len(parts) > 1 {
		a.Type = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		a.Description = strings.TrimSpace(parts[2])
	}
	if a.Name == "" {
		return a, fmt.Errorf("ability %q: name required", s)
	}
	return a, nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	rarity, err := companion.ParseRarity(createRarity)
	if err != nil {
		return err
	}

	p := companion.Profile{
		ID:           createID,
		Name:         createName,
		Core:         createCore,
		Personality:  createPersonality,
		Lore:         createLore,
		Rarity:       rarity,
		OwnerAddress: createOwner,
	}
	for _, s := range createAbilities {
		a, err := parseAbility(s)
		if err != nil {
			return err
		}
		p.Abilities = append(p.Abilities, a)
	}

	b, err := openBackend(cmd.Context())
	if err != nil {
		return err
	}
	defer b.Close()

	snap, err := b.Create(p)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	printSnapshot(cmd.OutOrStdout(), snap)
	return nil
}

// --- list command ---

var listOwner string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List companions",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	b, err := openBackend(cmd.Context())
	if err != nil {
		return err
	}
	defer b.Close()

	snaps, err := b.List(listOwner)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	if len(snaps) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No companions yet. Create one with `thringlet create`.")
		return nil
	}
	printList(cmd.OutOrStdout(), snaps)
	return nil
}

// --- show command ---

var showMemory int

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a companion",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	b, err := openBackend(cmd.Context())
	if err != nil {
		return err
	}
	defer b.Close()

	snap, err := b.Get(args[0])
	if err != nil {
		return fmt.Errorf("show: %w", err)
	}
	out := cmd.OutOrStdout()
	printSnapshot(out, snap)
	if len(snap.Profile.Abilities) > 0 {
		fmt.Fprintln(out)
		printAbilities(out, snap.Profile.Abilities)
	}
	if showMemory > 0 {
		fmt.Fprintln(out)
		printMemory(out, snap.State.Memory, showMemory)
	}
	return nil
}

// --- interact command ---

var interactCmd = &cobra.Command{
	Use:   "interact <id> <kind>",
	Short: "Interact with a companion (talk, feed, train, debug)",
	Args:  cobra.ExactArgs(2),
	RunE:  runInteract,
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 1 {
			return companion.InteractionKinds(), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
}

func runInteract(cmd *cobra.Command, args []string) error {
	b, err := openBackend(cmd.Context())
	if err != nil {
		return err
	}
	defer b.Close()

	res, err := b.Interact(args[0], args[1])
	if err != nil {
		return fmt.Errorf("interact: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, res.Result.Message)
	if a := res.Result.AbilityActivated; a != nil {
		fmt.Fprintf(out, "  ability: %s\n", describeAbility(*a))
	}
	fmt.Fprintln(out, statusLine(res.Companion))
	return nil
}

// --- decay command ---

var decayAll bool

var decayCmd = &cobra.Command{
	Use:   "decay [id]",
	Short: "Apply time decay to one companion, or all with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDecay,
}

func runDecay(cmd *cobra.Command, args []string) error {
	if decayAll == (len(args) == 1) {
		return errors.New("give a companion id or --all")
	}

	b, err := openBackend(cmd.Context())
	if err != nil {
		return err
	}
	defer b.Close()

	out := cmd.OutOrStdout()
	if decayAll {
		n, err := b.DecayAll()
		if err != nil {
			return fmt.Errorf("decay: %w", err)
		}
		fmt.Fprintf(out, "Decayed %s %s.\n", commaInt(n), plural(n, "companion", "companions"))
		return nil
	}

	res, err := b.Decay(args[0])
	if err != nil {
		return fmt.Errorf("decay: %w", err)
	}
	if !res.Changed {
		fmt.Fprintf(out, "%s was seen recently; nothing to decay.\n", res.Companion.Profile.Name)
	}
	fmt.Fprintln(out, statusLine(res.Companion))
	return nil
}

// --- abilities command ---

var abilitiesCmd = &cobra.Command{
	Use:   "abilities <id>",
	Short: "List a companion's abilities",
	Args:  cobra.ExactArgs(1),
	RunE:  runAbilities,
}

func runAbilities(cmd *cobra.Command, args []string) error {
	b, err := openBackend(cmd.Context())
	if err != nil {
		return err
	}
	defer b.Close()

	abilities, err := b.Abilities(args[0])
	if err != nil {
		return fmt.Errorf("abilities: %w", err)
	}
	if len(abilities) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No abilities.")
		return nil
	}
	printAbilities(cmd.OutOrStdout(), abilities)
	return nil
}

// --- delete command ---

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a companion and its memories",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	b, err := openBackend(cmd.Context())
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.Delete(args[0]); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", args[0])
	return nil
}

func init() {
	createCmd.Flags().StringVar(&createID, "id", "", "Companion ID (default: random UUID)")
	createCmd.Flags().StringVar(&createName, "name", "", "Display name")
	createCmd.Flags().StringVarP(&createRarity, "rarity", "r", string(companion.Common), "Common, Rare, Epic or Legendary")
	createCmd.Flags().StringVar(&createOwner, "owner", "", "Owner address")
	createCmd.Flags().StringVar(&createCore, "core", "", "Core trait")
	createCmd.Flags().StringVar(&createPersonality, "personality", "", "Personality")
	createCmd.Flags().StringVar(&createLore, "lore", "", "Backstory")
	createCmd.Flags().StringArrayVarP(&createAbilities, "ability", "a", nil, "Ability as name:type:description (repeatable)")
	createCmd.MarkFlagRequired("name")

	listCmd.Flags().StringVar(&listOwner, "owner", "", "Only companions with this owner address")

	showCmd.Flags().IntVarP(&showMemory, "memory", "m", 0, "Show the last N memory entries")

	decayCmd.Flags().BoolVar(&decayAll, "all", false, "Decay every companion")
}
