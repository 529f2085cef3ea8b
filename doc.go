/*
Package prep builds datasets from manifests.

Concept

A manifest is a plain text file where every line describes one record of a
dataset: where its raw data lives and which target values belong to it. This
package turns a manifest into a positionally aligned pair of features and
labels in three strictly ordered stages:

    Parse - every manifest line yields raw clips and label records;
    Extract - every raw clip yields one feature;
    Finish - one pass over the whole feature collection.

It implies the following constraints:

    All three stages are mandatory;
    Extract starts only after Parse consumed the whole manifest;
    Finish starts only after Extract produced every feature;
    Finish is always a single call and is never parallelized.

Parse and Extract run either serially in the calling goroutine or over a
fixed-size worker pool. In both modes results are collected in manifest
order, no matter how workers interleave.

Plugins

The package does no parsing, decoding or feature math itself. All of that is
supplied by the caller as three plugin functions:

    ParseFunc
    ExtractFunc
    FinishFunc

Ready-made plugins for wav manifests live in the wav subpackage,
configurable fakes for testing in the mock subpackage.

Execution

    features, labels, props, err := prep.Run(cfg, "train.lst",
        wav.Parse,
        wav.Frames(400),
        wav.PadToLongest,
        prep.WithWorkers(4),
    )

Run reads the whole manifest up front, drives the three stages and returns
the features, the label value rows and the properties derived during the
run, such as the sample rate reported by the parse stage.

Any error returned by a plugin aborts the run: there are no retries and no
partial results. A corrupt record stops the build so it can be inspected.
*/
package prep
