package handlers

import (
	"encoding/csv"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/arnavshah/roster-engine-go/pkg/models"
	"github.com/gin-gonic/gin"
)

func parseCSVTime(value string) time.Time {
	t, _ := time.Parse(time.RFC3339, value)
	if t.IsZero() {
		t, _ = time.Parse("2006-01-02T15:04", value)
	}
	if t.IsZero() {
		t, _ = time.Parse("2006-01-02", value)
	}
	return t
}

func readCSV(file *multipart.FileHeader) (cols map[string]int, rows [][]string, err error) {
	f, err := file.Open()
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, nil, err
	}
	cols = make(map[string]int)
	for i, name := range header {
		cols[name] = i
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		rows = append(rows, record)
	}
	return cols, rows, nil
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// parseRequiredRoles parses "usher:2|greeter:1" into RequiredRole pairs,
// preserving list order (it is the greedy fill order).
func parseRequiredRoles(value string) []models.RequiredRole {
	var roles []models.RequiredRole
	for _, part := range strings.Split(value, "|") {
		if !strings.Contains(part, ":") {
			continue
		}
		rp := strings.SplitN(part, ":", 2)
		count, _ := strconv.Atoi(strings.TrimSpace(rp[1]))
		roles = append(roles, models.RequiredRole{
			Role:  strings.TrimSpace(rp[0]),
			Count: count,
		})
	}
	return roles
}

// SolveCSV handles CSV file uploads for solving. Expects people_file and
// events_file, plus an optional holidays_file; constraints are not
// expressible in CSV and go through the JSON endpoint. Responds with the
// assignment list rendered back as CSV.
func (h *Handler) SolveCSV(c *gin.Context) {
	peopleFile, _ := c.FormFile("people_file")
	eventsFile, _ := c.FormFile("events_file")
	holidaysFile, _ := c.FormFile("holidays_file")

	if peopleFile == nil || eventsFile == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "people_file and events_file are required"})
		return
	}

	pCols, pRows, err := readCSV(peopleFile)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read people file"})
		return
	}
	var people []models.Person
	for _, record := range pRows {
		person := models.Person{
			ID:    record[pCols["id"]],
			Name:  record[pCols["name"]],
			Roles: splitList(record[pCols["roles"]]),
		}
		if idx, ok := pCols["skills"]; ok {
			person.Skills = splitList(record[idx])
		}
		people = append(people, person)
	}

	eCols, eRows, err := readCSV(eventsFile)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read events file"})
		return
	}
	var events []models.Event
	for _, record := range eRows {
		event := models.Event{
			ID:            record[eCols["id"]],
			Type:          record[eCols["type"]],
			Start:         parseCSVTime(record[eCols["start"]]),
			End:           parseCSVTime(record[eCols["end"]]),
			RequiredRoles: parseRequiredRoles(record[eCols["required_roles"]]),
		}
		if idx, ok := eCols["resource_id"]; ok {
			event.ResourceID = record[idx]
		}
		if idx, ok := eCols["team_ids"]; ok {
			event.TeamIDs = splitList(record[idx])
		}
		events = append(events, event)
	}

	var holidays []models.Holiday
	if holidaysFile != nil {
		hCols, hRows, err := readCSV(holidaysFile)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read holidays file"})
			return
		}
		for _, record := range hRows {
			longWeekend := false
			if idx, ok := hCols["long_weekend"]; ok {
				longWeekend, _ = strconv.ParseBool(record[idx])
			}
			holidays = append(holidays, models.Holiday{
				Date:        parseCSVTime(record[hCols["date"]]),
				LongWeekend: longWeekend,
			})
		}
	}

	// Date range from form fields, falling back to the event span.
	from := parseCSVTime(c.PostForm("from_date"))
	to := parseCSVTime(c.PostForm("to_date"))
	if from.IsZero() || to.IsZero() {
		for _, ev := range events {
			if from.IsZero() || ev.Start.Before(from) {
				from = ev.Start
			}
			if to.IsZero() || ev.Start.After(to) {
				to = ev.Start
			}
		}
	}

	input := models.SolveContext{
		People:   people,
		Events:   events,
		Holidays: holidays,
		FromDate: from,
		ToDate:   to,
		Mode:     c.PostForm("mode"),
	}

	bundle, err := h.Solver.Solve(&input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.RecordUsage(c, len(events), len(people))
	h.RecordSolve(c, &input, bundle)

	peopleByID := make(map[string]models.Person, len(people))
	for _, p := range people {
		peopleByID[p.ID] = p
	}
	eventsByID := make(map[string]models.Event, len(events))
	for _, ev := range events {
		eventsByID[ev.ID] = ev
	}

	var outCSV strings.Builder
	writer := csv.NewWriter(&outCSV)
	writer.Write([]string{"event_id", "person_id", "person_name", "start", "end", "resource_id"})

	for _, asgn := range bundle.Assignments {
		ev := eventsByID[asgn.EventID]
		for _, pid := range asgn.AssigneeIDs {
			writer.Write([]string{
				asgn.EventID,
				pid,
				peopleByID[pid].Name,
				ev.Start.Format(time.RFC3339),
				ev.End.Format(time.RFC3339),
				asgn.ResourceID,
			})
		}
	}
	writer.Flush()

	c.JSON(http.StatusOK, gin.H{
		"csv":          outCSV.String(),
		"health_score": bundle.Metrics.HealthScore,
		"violations":   bundle.Violations,
	})
}
