package types

// Version is the canonical project version. The protocol vocabulary, the
// session runtime, and the CLI share this version (lockstep versioning):
// the message set is closed, so any vocabulary change is a new version of
// everything.
const Version = "0.3.0"
