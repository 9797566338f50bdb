// nifti2png renders the first plane of a .nii or .nii.gz volume to PNG,
// optionally with a distance map or mask blended on top and annotation
// outlines drawn over it.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/carbocation/nucleiseg"
	"github.com/carbocation/nucleiseg/annotation"
	_ "github.com/carbocation/nucleiseg/compileinfoprint"
	"github.com/carbocation/nucleiseg/nifti"
	"github.com/carbocation/nucleiseg/overlay"
)

func main() {
	start := time.Now()
	log.Println("nifti2png start")
	defer func() {
		log.Printf("nifti2png end. Took %.2f seconds\n", time.Since(start).Seconds())
	}()

	var filename, maskFile, xmlFile, output, cmapName, outlineColor string
	var size int
	var alpha float64

	flag.StringVar(&filename, "file", "", "Name of .nii or .nii.gz file to render.")
	flag.StringVar(&maskFile, "mask", "", "(Optional) .nii or .nii.gz distance map or mask with the same shape, blended where it is > 0.")
	flag.StringVar(&xmlFile, "xml", "", "(Optional) XML annotation whose polygons are outlined on top. May be a gs:// path.")
	flag.StringVar(&output, "out", "", "Name of folder where the png will be emitted. Filename will be {orig_filename}.png.")
	flag.IntVar(&size, "size", 512, "(Optional) Length of the longer side of the output, in pixels. 0 keeps the native size.")
	flag.Float64Var(&alpha, "alpha", 0.5, "(Optional) Opacity of the mask overlay, from 0 to 1.")
	flag.StringVar(&cmapName, "cmap", "reds", "(Optional) Colormap for the mask overlay: reds or gray.")
	flag.StringVar(&outlineColor, "outline", "#00ff00", "(Optional) Hex color for annotation outlines.")
	flag.Parse()

	if filename == "" || output == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	cmap, err := overlay.ColormapByName(cmapName)
	if err != nil {
		log.Fatalln(err)
	}

	prefix := filepath.Base(filename)
	prefix = strings.TrimSuffix(prefix, ".nii.gz")
	prefix = strings.TrimSuffix(prefix, ".nii")

	if err := os.MkdirAll(output, os.ModePerm); err != nil {
		log.Fatalln(err)
	}

	if err := nifti2png(filename, maskFile, xmlFile, outlineColor, prefix, output, cmap, alpha, size); err != nil {
		log.Fatalln(err)
	}
}

func nifti2png(filename, maskFile, xmlFile, outlineColor, prefix, output string, cmap overlay.Colormap, alpha float64, size int) error {
	base, err := nifti.Read(filename)
	if err != nil {
		return err
	}

	var mask overlay.Grid
	if maskFile != "" {
		m, err := nifti.Read(maskFile)
		if err != nil {
			return err
		}
		mask = m
	}

	rendered, err := overlay.Render(base, overlay.Gray, mask, cmap, alpha)
	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}

	var img image.Image = rendered
	if xmlFile != "" {
		var client *storage.Client
		if nucleiseg.IsGoogleStoragePath(xmlFile) {
			client, err = storage.NewClient(context.Background())
			if err != nil {
				return err
			}
			defer client.Close()
		}

		ann, err := annotation.ParseFile(context.Background(), xmlFile, client)
		if err != nil {
			return err
		}

		// Volumes store rows on the first axis, so the rendered image is
		// already in annotation (x=column, y=row) orientation
		img, err = overlay.DrawRegions(img, ann.Regions, outlineColor, 1)
		if err != nil {
			return err
		}
	}

	img = overlay.Fit(img, size)

	outPath := filepath.Join(output, prefix+".png")
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	fw := bufio.NewWriter(f)
	if err := png.Encode(fw, img); err != nil {
		return err
	}
	if err := fw.Flush(); err != nil {
		return err
	}

	// Emit metadata about the PNG
	lo, hi := base.MinMax()
	spacing, err := nifti.Spacing(filename)
	if err != nil {
		log.Printf("%s: could not read voxel spacing: %s\n", filename, err)
	}
	fmt.Printf("%s\t%d\t%d\t%g\t%g\t%g\t%g\t%g\n", prefix, base.Height, base.Width, lo, hi, spacing[0], spacing[1], spacing[2])

	return f.Close()
}
