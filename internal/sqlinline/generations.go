package sqlinline

const QSelectGeneration = `--sql 3d8e2b71-5c1f-4a8e-9b0d-6f2a41c7e913
select
  id::text,
  user_id::text,
  pose,
  status,
  coalesce(result_image_url, ''),
  coalesce(processed_image_url, ''),
  seed,
  attempt_count,
  similarity_score,
  ssim_score,
  coalesce(rejection_reason, ''),
  updated_at
from generations
where id = $1::uuid
limit 1;
`

// QReportGenerationStatus never overwrites a terminal row. Nullable
// arguments keep the stored value when absent.
const QReportGenerationStatus = `--sql 8a14f0c2-97d3-4b6e-a5f1-0c3e7d92b4a6
update generations
set status              = $2::text,
    result_image_url    = coalesce(nullif($3::text, ''), result_image_url),
    processed_image_url = coalesce(nullif($4::text, ''), processed_image_url),
    seed                = coalesce($5::bigint, seed),
    attempt_count       = coalesce($6::int, attempt_count),
    similarity_score    = coalesce($7::double precision, similarity_score),
    ssim_score          = coalesce($8::double precision, ssim_score),
    rejection_reason    = coalesce(nullif($9::text, ''), rejection_reason),
    updated_at          = now()
where id = $1::uuid
  and status not in ('COMPLETED', 'REJECTED', 'FAILED');
`
