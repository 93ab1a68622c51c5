package catalog

import (
	"bufio"
	"regexp"
	"strings"

	"github.com/sdkdesk/sdkdesk/internal/sdk"
)

var (
	// candidateBlock matches one entry of the candidate listing: a title
	// line, a blank line, the description and the install hint.
	candidateBlock = regexp.MustCompile(`(?s)---\r*\n(.+?)\r*\n\r*\n(.*?)\$ sdk install(.*?)\r*\n`)

	// tableRow matches a row of the java listing:
	// Vendor | Use | Version | Dist | Status | Identifier
	tableRow = regexp.MustCompile(`(.*?)\|(.*?)\|(.*?)\|(.*?)\|(.*?)\|(.*)`)
)

const vendorHeader = "Vendor"

// ParseCandidates parses the candidate listing. Unparseable blocks are skipped.
func ParseCandidates(body string) []sdk.Candidate {
	if strings.TrimSpace(body) == "" {
		return nil
	}

	var out []sdk.Candidate
	for _, m := range candidateBlock.FindAllStringSubmatch(body, -1) {
		title := strings.TrimSpace(m[1])
		desc := strings.Join(strings.Fields(m[2]), " ")
		id := strings.TrimSpace(m[3])
		if id == "" {
			continue
		}

		c := sdk.Candidate{
			ID:          id,
			Description: desc,
			Category:    sdk.CategoryFor(id, desc),
		}
		if i := strings.LastIndex(title, "http"); i >= 0 {
			c.Website = strings.TrimSpace(title[i:])
			title = strings.TrimSpace(title[:i])
		}
		open, end := strings.LastIndex(title, "("), strings.LastIndex(title, ")")
		if open >= 0 && end > open {
			c.LatestVersion = strings.TrimSpace(title[open+1 : end])
			title = strings.TrimSpace(title[:open])
		}
		c.Name = title
		out = append(out, c)
	}
	return out
}

// ParseVersions parses a version listing. The java listing is a table
// with a vendor column; every other candidate uses a column layout with
// ">" (in use) and "*" (installed) markers.
func ParseVersions(body, candidate string) []sdk.Version {
	if strings.TrimSpace(body) == "" {
		return nil
	}
	if strings.Contains(body, vendorHeader) && tableRow.MatchString(body) {
		return parseTable(body, candidate)
	}
	return parseColumns(body, candidate)
}

func parseTable(body, candidate string) []sdk.Version {
	var (
		out        []sdk.Version
		lastVendor string
	)
	for _, m := range tableRow.FindAllStringSubmatch(body, -1) {
		vendor := strings.TrimSpace(m[1])
		use := strings.TrimSpace(m[2])
		version := strings.TrimSpace(m[3])
		status := strings.TrimSpace(m[5])
		identifier := strings.TrimSpace(m[6])

		if vendor == vendorHeader {
			continue
		}
		// Vendor is only printed on the first row of each group.
		if vendor != "" {
			lastVendor = vendor
		} else {
			vendor = lastVendor
		}
		if identifier == "" {
			continue
		}

		inUse := strings.Contains(use, ">")
		out = append(out, sdk.Version{
			Candidate:  candidate,
			Version:    version,
			Identifier: identifier,
			Vendor:     vendor,
			Categories: sdk.JDKCategoriesFor(identifier),
			Installed:  strings.Contains(status, "installed") || strings.Contains(use, "*"),
			InUse:      inUse,
			IsDefault:  inUse,
		})
	}
	return out
}

// parseColumns reads the listing between the header block (rule, title,
// rule) and the next rule. A marker token applies to the version after it;
// "+" marks a local-only version.
func parseColumns(body, candidate string) []sdk.Version {
	var out []sdk.Version

	rules := 0
	if !strings.Contains(body, "=====") {
		rules = 2
	}
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "=====") {
			rules++
			if rules > 2 {
				break
			}
			continue
		}
		if rules < 2 || line == "" {
			continue
		}

		var inUse, installed bool
		for _, tok := range strings.Fields(line) {
			switch tok {
			case ">":
				inUse = true
				continue
			case "*", "+":
				installed = true
				continue
			}
			out = append(out, sdk.Version{
				Candidate:  candidate,
				Version:    tok,
				Identifier: tok,
				Installed:  installed || inUse,
				InUse:      inUse,
				IsDefault:  inUse,
			})
			inUse, installed = false, false
		}
	}
	return out
}
