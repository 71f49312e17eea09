/*
Package status reports progress to the user.

	+-----------+      +-----------+
	| Operation | ---> | Reporter  |
	+-----------+      +-----+-----+
	                         |
	                +--------+--------+
	                |                 |
	          +-----+-----+     +-----+-----+
	          |  Console  |     |    Nop    |
	          +-----------+     +-----------+

Console prints one row per file with the size change and a closing summary.
Colors are only used when writing to a terminal. Nop is used with --quiet
and in tests.
*/
package status
