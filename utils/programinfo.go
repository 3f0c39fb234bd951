// elgeno: a high-performance tool for converting genotype files.
// Copyright (c) 2020 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elgeno/blob/master/LICENSE.txt>.

package utils

// Identification of the elgeno binary, as printed in its startup banner
// and at the top of every log file.
const (
	// ProgramName is the name of the command-line tool.
	ProgramName = "elgeno"

	// ProgramVersion is the release of the genotype converter.
	ProgramVersion = "1.0.0"

	// ProgramURL points to the elgeno source code and documentation.
	ProgramURL = "https://github.com/exascience/elgeno"
)
