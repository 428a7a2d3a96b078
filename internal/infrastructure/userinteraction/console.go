package userinteraction

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"deletion-agent/internal/application/port/output"
	"deletion-agent/internal/domain/entity"
)

var _ output.UserInteractionPort = (*ConsoleUserInteraction)(nil)

// ConsoleUserInteraction is the human gate for the AI fallback path: the
// operator reviews the proposed mapping on the terminal and explicitly
// approves the submission.
type ConsoleUserInteraction struct {
	reader *bufio.Reader
}

func NewConsoleUserInteraction() *ConsoleUserInteraction {
	return &ConsoleUserInteraction{
		reader: bufio.NewReader(os.Stdin),
	}
}

func (u *ConsoleUserInteraction) ShowMapping(ctx context.Context, brokerName string, mapping entity.FieldMapping, report *entity.FillReport) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Printf("\n━━━ AI field mapping for %s ━━━\n", brokerName)

	fieldIDs := make([]string, 0, len(mapping))
	for id := range mapping {
		fieldIDs = append(fieldIDs, id)
	}
	sort.Strings(fieldIDs)

	for _, id := range fieldIDs {
		entry := mapping[id]
		fmt.Printf("  %s ← %s (%s)\n", id, entry.UserKey, entry.Kind)
	}

	if report != nil {
		green := color.New(color.FgGreen)
		green.Printf("\nFilled: %d fields\n", report.Filled)
		if report.Failed > 0 {
			red := color.New(color.FgRed)
			red.Printf("Failed: %d fields\n", report.Failed)
			dim := color.New(color.Faint)
			for _, e := range report.Errors {
				dim.Printf("  - %s\n", e)
			}
		}
	}
}

func (u *ConsoleUserInteraction) ConfirmSubmission(ctx context.Context, brokerName string) (bool, error) {
	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Println("\nIMPORTANT: review the filled form in the browser before submitting.")
	fmt.Printf("Submit the %s form? (y/N): ", brokerName)

	answer, err := u.reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("failed to read user input: %w", err)
	}
	return strings.EqualFold(strings.TrimSpace(answer), "y"), nil
}
