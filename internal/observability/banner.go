package observability

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

var startTime = time.Now()

const (
	colorReset    = "\033[0m"
	colorPurple   = "\033[35m"
	colorNeonCyan = "\033[96m"
	colorNeonMag  = "\033[95m"
)

// Terminal layout: logo on lines 1-9, status on line 10, logs from 12.
const (
	statusRow    = 10
	firstLogRow  = 12
	maxTaskWidth = 25
	memBarWidth  = 20
)

const logo = `
  ____  __  __ ______ ____ _   __ ______
 / __ \/ / / //_  __//  _// | / // ____/
/ / / / / / /  / /   / / /  |/ // / __
/ /_/ / /_/ /  / /  _/ / / /|  // /_/ /
\____/\____/  /_/  /___//_/ |_/ \____/

        >> MOVIES. DINNER. WEATHER. GO. <<
`

var radarFrames = []string{"◜", "◝", "◞", "◟"}

var roleIcons = map[Role]struct{ icon, color string }{
	RoleIdle:        {"💤", colorReset},
	RolePlanning:    {"🧭", colorNeonCyan},
	RoleDispatching: {"⚙️", colorNeonMag},
}

// termMu serialises every terminal write so the status line's cursor
// save/restore is never split by a log line.
var termMu sync.Mutex

type termWriter struct{}

func (termWriter) Write(p []byte) (int, error) {
	termMu.Lock()
	defer termMu.Unlock()
	return os.Stderr.Write(p)
}

// NewTermWriter returns a stderr writer that shares the status line lock.
func NewTermWriter() *termWriter {
	return &termWriter{}
}

func termWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return w
}

// Banner centres the logo for a terminal of the given width.
func Banner(width int) string {
	var b strings.Builder
	for _, line := range strings.Split(logo, "\n") {
		pad := max((width-len(line))/2, 0)
		b.WriteString(strings.Repeat(" ", pad) + colorNeonCyan + line + colorReset + "\n")
	}
	return b.String()
}

func PrintBanner() {
	fmt.Print("\033[2J\033[H" + Banner(termWidth()))
}

func InitializeTerminal() {
	fmt.Printf("\033[%d;r\033[%d;1H", firstLogRow, firstLogRow)
}

func CleanupTerminal() {
	fmt.Print("\033[r\033[2J\033[H")
}

// pulse grades the heartbeat age.
func pulse(age time.Duration) (icon, text, color string) {
	switch {
	case age < 40*time.Second:
		return "🟢", "HEALTHY", colorNeonCyan
	case age < 90*time.Second:
		return "🟡", "LAGGING", colorPurple
	}
	return "🔴", "OFFLINE", colorNeonMag
}

// MemUsage is the heap in use against memory obtained from the OS, in MB.
type MemUsage struct {
	AllocMB float64
	SysMB   float64
}

func readMem() MemUsage {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemUsage{AllocMB: float64(m.Alloc) / 1024 / 1024, SysMB: float64(m.Sys) / 1024 / 1024}
}

// StatusLine renders the dashboard line for s without cursor control.
// frame selects the radar glyph shown while a plan is running.
func StatusLine(s Snapshot, mem MemUsage, now time.Time, frame int) string {
	pulseIcon, pulseText, pulseColor := pulse(now.Sub(s.LastHeartbeat))

	role, ok := roleIcons[s.Role]
	if !ok {
		role = roleIcons[RoleIdle]
	}
	radar := " "
	if s.Role != RoleIdle {
		radar = radarFrames[frame%len(radarFrames)]
	}

	task := s.ActiveTask
	if task == "" {
		task = "Waiting for plans..."
	}
	if len(task) > maxTaskWidth {
		task = task[:maxTaskWidth-3] + "..."
	}

	ratio := 0.0
	if mem.SysMB > 0 {
		ratio = mem.AllocMB / mem.SysMB
	}
	filled := min(max(int(ratio*memBarWidth), 0), memBarWidth)
	barColor := colorNeonCyan
	if ratio > 0.7 {
		barColor = colorNeonMag
	}

	return fmt.Sprintf("[%s] %s%s %-10s%s | %s[%s %-11s]%s [%d active] [%s] %s%s%s [%v] [%s%s %.1fMB%s]",
		s.LastHeartbeat.Format("15:04:05"),
		pulseColor, pulseIcon, pulseText, colorReset,
		role.color, role.icon, s.Role, colorReset,
		s.ActivePlans,
		task,
		colorPurple, radar, colorReset,
		now.Sub(startTime).Round(time.Second),
		barColor, strings.Repeat("█", filled)+strings.Repeat("▒", memBarWidth-filled), mem.AllocMB, colorReset,
	)
}

var radarFrame int

// PrintLiveStatus redraws the status row in place.
func PrintLiveStatus() {
	line := StatusLine(GetStatus(), readMem(), time.Now(), radarFrame)
	radarFrame++

	termMu.Lock()
	fmt.Printf("\033[s\033[%d;1H\033[K%s%s\033[u", statusRow, colorReset, line)
	termMu.Unlock()
}
