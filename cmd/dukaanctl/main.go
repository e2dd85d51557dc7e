// Command dukaanctl computes dashboard figures and reminders offline from an
// exported invoice list or a backup file.
package main

func main() {
	Execute()
}
