package resolve

// Mode identifies which configuration variant a run produces. It is read
// from the invocation (subcommand or PACKSMITH_MODE) once per process.
type Mode string

const (
	ModeStart  Mode = "start"
	ModeBuild  Mode = "build"
	ModeStats  Mode = "stats"
	ModeDeploy Mode = "deploy"
)

// ParseMode maps a raw signal to a Mode. Unrecognized or empty values fall
// back to ModeStart with ok=false; new invocation contexts must not break
// old binaries, so no error is ever returned.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeStart, ModeBuild, ModeStats, ModeDeploy:
		return Mode(s), true
	case "":
		return ModeStart, true
	}
	return ModeStart, false
}

// Production reports whether the mode persists fingerprinted artifacts to
// disk. stats and deploy are strict supersets of build.
func (m Mode) Production() bool {
	return m == ModeBuild || m == ModeStats || m == ModeDeploy
}
