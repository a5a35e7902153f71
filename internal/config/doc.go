// Package config provides the configuration of rootscan: the bracket scan
// domain, solver tolerances, output locations, sweep exponents and report
// preferences. Values come from defaults, the optional .rootscan YAML
// file and command-line flags, in that order of precedence.
package config
