/*
Package config manages configuration parsing and validation for huftar.

	            +-------------+
	            |   Config    |
	            | (Settings)  |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+----+ +-----+----+ +-----+----+
	|   YAML   | |   HCL    | |   JSON   |
	+----------+ +----------+ +----------+

🎯 Purpose:
- Loads an optional config file, format picked by extension
- Fills in defaults and rejects unusable values
- Converts sections into compressor options, walk filters and naming

🔄 Precedence:
built-in defaults < config file < command line flags

🔍 Example (.huftar.yaml):

	compressor:
	  kind: exec
	  command: ./huf
	  args: ["{src}", "{dst}"]
	  timeout: 30s
	naming: relative
	exclude: [".git", "build", "*.tmp"]
	workers: 4

The same file in HCL:

	compressor {
	  kind    = "bzip2"
	  level   = 9
	}
	naming  = "flat"
	workers = 2
*/
package config
