package config

// What to do when output file already exists.
// ENUM(fail, skip, overwrite)
type ExistingOutput int
