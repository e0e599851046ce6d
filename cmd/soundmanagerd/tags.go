package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"gitlab.com/fidelxyz/soundmanager/internal/catalog"
	"gitlab.com/fidelxyz/soundmanager/internal/config"
)

var tagsCmd = &cobra.Command{
	Use:   "tags <base-path>",
	Short: "List, add, rename, recolor, reorder or delete tags",
}

func openForTags(basePath string) *catalog.Catalog {
	cfg := config.Default(basePath)
	c, err := catalog.Open(cfg, stdoutEmitter{}, nil)
	if err != nil {
		fmt.Printf("could not open catalog: %v\n", err)
		os.Exit(1)
	}
	return c
}

func printTagTree(m *catalog.Model, id int32, depth int) {
	for _, t := range m.ChildTags(id) {
		fmt.Printf("%*s%s (id=%d, color=%d)\n", depth*2, "", t.Name, t.ID, t.Color)
		printTagTree(m, t.ID, depth+1)
	}
}

var tagsListCmd = &cobra.Command{
	Use:   "list <base-path>",
	Args:  cobra.ExactArgs(1),
	Short: "Print the tag tree",
	Run: func(cmd *cobra.Command, args []string) {
		c := openForTags(args[0])
		defer c.Close()
		printTagTree(c.Model(), catalog.RootID, 0)
	},
}

var tagsAddCmd = &cobra.Command{
	Use:   "add <base-path> <name>",
	Args:  cobra.ExactArgs(2),
	Short: "Create a new tag as the last child of the root",
	Run: func(cmd *cobra.Command, args []string) {
		c := openForTags(args[0])
		defer c.Close()
		id, err := c.NewTag(args[1])
		if err != nil {
			fmt.Printf("could not create tag: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("created tag %d\n", id)
	},
}

var tagsRenameCmd = &cobra.Command{
	Use:   "rename <base-path> <id> <name>",
	Args:  cobra.ExactArgs(3),
	Short: "Rename a tag",
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[1], 10, 32)
		if err != nil {
			fmt.Printf("invalid tag id '%s'\n", args[1])
			os.Exit(1)
		}
		c := openForTags(args[0])
		defer c.Close()
		if err := c.RenameTag(int32(id), args[2]); err != nil {
			fmt.Printf("could not rename tag: %v\n", err)
			os.Exit(1)
		}
	},
}

var tagsDeleteCmd = &cobra.Command{
	Use:   "delete <base-path> <id>",
	Args:  cobra.ExactArgs(2),
	Short: "Delete a tag and its descendants",
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[1], 10, 32)
		if err != nil {
			fmt.Printf("invalid tag id '%s'\n", args[1])
			os.Exit(1)
		}
		c := openForTags(args[0])
		defer c.Close()
		if err := c.DeleteTag(int32(id)); err != nil {
			fmt.Printf("could not delete tag: %v\n", err)
			os.Exit(1)
		}
	},
}

var tagsColorCmd = &cobra.Command{
	Use:   "color <base-path> <id> <color>",
	Args:  cobra.ExactArgs(3),
	Short: "Set a tag's color",
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[1], 10, 32)
		if err != nil {
			fmt.Printf("invalid tag id '%s'\n", args[1])
			os.Exit(1)
		}
		color, err := strconv.ParseInt(args[2], 10, 32)
		if err != nil {
			fmt.Printf("invalid color '%s'\n", args[2])
			os.Exit(1)
		}
		c := openForTags(args[0])
		defer c.Close()
		if err := c.SetTagColor(int32(id), int32(color)); err != nil {
			fmt.Printf("could not recolor tag: %v\n", err)
			os.Exit(1)
		}
	},
}

var tagsReorderCmd = &cobra.Command{
	Use:   "reorder <base-path> <id> <new-parent> <new-position>",
	Args:  cobra.ExactArgs(4),
	Short: "Move a tag to a new parent and position",
	Run: func(cmd *cobra.Command, args []string) {
		id, err1 := strconv.ParseInt(args[1], 10, 32)
		parent, err2 := strconv.ParseInt(args[2], 10, 32)
		pos, err3 := strconv.ParseInt(args[3], 10, 32)
		if err1 != nil || err2 != nil || err3 != nil {
			fmt.Println("invalid numeric argument")
			os.Exit(1)
		}
		c := openForTags(args[0])
		defer c.Close()
		if err := c.ReorderTag(int32(id), int32(parent), int32(pos)); err != nil {
			fmt.Printf("could not reorder tag: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	tagsCmd.AddCommand(tagsListCmd, tagsAddCmd, tagsRenameCmd, tagsDeleteCmd, tagsColorCmd, tagsReorderCmd)
	rootCmd.AddCommand(tagsCmd)
}
