// Package config loads the tool configuration file and the task and service
// definition files. Definition files are parsed into the same JSON-shaped
// structures the merge engine operates on, from either JSON or YAML.
package config
