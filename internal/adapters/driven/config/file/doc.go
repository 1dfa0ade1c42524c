// Package file persists configuration to a TOML file on the local
// filesystem. The file it writes is the one ddb2es reads when no
// --config flag is given.
package file
