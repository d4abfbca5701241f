/*
simulate - Command-line front end of the workforce simulation engine

COMMANDS:
  run      Run a simulation document or built-in scenario
  summary  Count the events of a recorded run
  history  Print everything that happened to one person in a run
  runs     List the runs recorded in a store

STORES:
  --store csv     One CSV file per run under --dir (default EVENT_LOG_DIR)
  --store sqlite  All runs in the SQLite database at --db (default DB_PATH)
  --store memory  Nothing persisted (dry run)

EXAMPLES:
  simulate run --scenario baseline --seed 7 --xlsx baseline.xlsx
  simulate run --config ./plans/2026.yaml --store sqlite
  simulate summary --run 3f1c...
  simulate history --run 3f1c... --person 9a2e...
*/
package main

func main() {
	Execute()
}
