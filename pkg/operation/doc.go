/*
Package operation implements the runnable steps of huftar.

	+-------------+     +-------------+     +-------------+
	|    walk     | --> |  compress   | --> |   archive   |
	| (lazy seq)  |     | (N workers) |     | (tar.gz)    |
	+-------------+     +-------------+     +-------------+

🎯 Purpose:
- ArchiveOperation turns a directory into <output>.tar.gz
- ExtractOperation restores the original files from such an archive
- ListOperation reports what an archive contains

🔄 Archive flow:
1. Files are walked lazily and named by the configured strategy
2. Each file is compressed into a private staging directory
3. Artifacts are added to the archive in walk order, each removed once added
4. The archive is renamed into place and the staging directory removed

A failure in any phase leaves no archive behind. Artifacts never land in
the source tree or the working directory.

🔍 Example:

	op, err := operation.NewArchiveOperation(operation.Options{
		Config:     cfg,
		Compressor: c,
		Reporter:   status.NewConsole(os.Stderr),
	}, "d", "out")
	if err != nil {
		return err
	}
	err = operation.NewRunner(logger).Run(ctx, op)
*/
package operation
