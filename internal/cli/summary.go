package cli

import (
	"strconv"
	"strings"

	"github.com/Veraticus/donor-sync/internal/engine"
)

// RenderResults renders the end-of-run summary: counters followed by every
// collected error.
func RenderResults(title string, r *engine.Results) string {
	rows := []Row{
		{Label: "Pledges processed", Value: strconv.Itoa(r.ProcessedPledges)},
		{Label: "New donors", Value: strconv.Itoa(r.NewDonors)},
		{Label: "Existing donors", Value: strconv.Itoa(r.ExistingDonors)},
		{Label: "Contacts created", Value: strconv.Itoa(r.ContactsCreated)},
		{Label: "List additions", Value: strconv.Itoa(r.ListAdditions)},
		{Label: "Deals created", Value: strconv.Itoa(r.DealsCreated)},
		{Label: "Activities created", Value: strconv.Itoa(r.ActivitiesCreated)},
		{Label: "Duplicates skipped", Value: strconv.Itoa(r.DuplicatesSkipped)},
		{Label: "Run", Value: r.RunID},
	}

	var b strings.Builder
	b.WriteString(RenderRows(rows))

	if len(r.Errors) == 0 {
		b.WriteString("\n\n")
		b.WriteString(FormatSuccess("No errors"))
	} else {
		b.WriteString("\n\n")
		b.WriteString(FormatError("Errors (" + strconv.Itoa(len(r.Errors)) + "):"))
		for _, e := range r.Errors {
			b.WriteString("\n  - ")
			b.WriteString(e)
		}
	}

	return RenderBox(title, b.String())
}

// RenderFetchSummary renders what a fetch saved and where.
func RenderFetchSummary(s *engine.FetchSummary, pledgesPath, projectsPath string) string {
	return RenderBox("Darujme.cz download", RenderRows([]Row{
		{Label: "Pledged since", Value: s.Since.Format("2006-01-02")},
		{Label: "Projects", Value: strconv.Itoa(s.Projects)},
		{Label: "Pledges fetched", Value: strconv.Itoa(s.PledgesFetched)},
		{Label: "Successful pledges", Value: strconv.Itoa(s.SuccessfulPledges)},
		{Label: "Pledges file", Value: pledgesPath},
		{Label: "Projects file", Value: projectsPath},
	}))
}
